package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
)

// User representa un usuario del sistema. Los tags json dan los nombres de la
// query string y los tags db las columnas.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Nombre    string    `json:"nombre" db:"nombre"`
	BirthDate time.Time `json:"birthDate" db:"birth_date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Age calcula la edad del usuario a partir de su fecha de nacimiento.
func (u *User) Age() int {
	return ageAt(u.BirthDate, time.Now())
}

func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Validate comprueba email y nombre antes de persistir.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Nombre) == "" {
		return ErrInvalidUser
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidUser
	}
	return nil
}

// Verificación estática para asegurar que User implementa la interfaz
var _ sharedBus.Keyer = (*User)(nil)
