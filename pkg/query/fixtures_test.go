package query

import "time"

type Audit struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type person struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email" db:"email_address"`
	Age       int       `json:"age"`
	Score     float64   `json:"score"`
	Active    bool      `json:"active"`
	BirthDate time.Time `json:"birthDate" db:"birth_date"`
	Nickname  *string   `json:"nickname"`
	Secret    string    `json:"-" query:"-"`
	Audit
}

type product struct {
	ID   int    `json:"id"`
	Code string `json:"code" query:"id"`
	Name string `json:"name"`
	Note string `json:"note"`
}

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func people() []person {
	return []person{
		{ID: 1, Name: "Ana Acme", Email: "ana@example.com", Age: 30, Score: 7.5, Active: true, BirthDate: date(1994, 3, 1), Nickname: strPtr("anita")},
		{ID: 2, Name: "Bruno", Email: "bruno@acme.io", Age: 40, Score: 6, Active: false, BirthDate: date(1984, 7, 12)},
		{ID: 3, Name: "carla", Email: "carla@example.com", Age: 25, Score: 9.1, Active: true, BirthDate: date(1999, 1, 20), Nickname: strPtr("CARLI")},
		{ID: 4, Name: "Diego", Email: "diego@example.com", Age: 30, Score: 5.25, Active: false, BirthDate: date(1994, 11, 5)},
		{ID: 5, Name: "Elena", Email: "elena@example.com", Age: 52, Score: 8, Active: true, BirthDate: date(1972, 5, 30)},
	}
}

func ids(items []person) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}
