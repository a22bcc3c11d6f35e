package domain

import (
	"reflect"

	sharedDomainEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

const UserTopic = "users.events"

func NewEventRegistry() sharedDomainEvents.Registry {
	meta := sharedDomainEvents.EventMetadata{Type: reflect.TypeOf(User{}), Topic: UserTopic}
	return sharedDomainEvents.Registry{
		UserCreated: meta,
		UserUpdated: meta,
		UserDeleted: meta,
	}
}
