package domain

import (
	"reflect"

	sharedDomainEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
)

const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

const TaskTopic = "tasks.events"

// NewEventRegistry registra los eventos de Task. task.deleted solo lleva el id,
// que también encaja en Task.
func NewEventRegistry() sharedDomainEvents.Registry {
	meta := sharedDomainEvents.EventMetadata{Type: reflect.TypeOf(Task{}), Topic: TaskTopic}
	return sharedDomainEvents.Registry{
		TaskCreated: meta,
		TaskUpdated: meta,
		TaskDeleted: meta,
	}
}
