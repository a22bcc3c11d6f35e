package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedMongo "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/mongodb"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/mongofilter"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

// Las columnas del índice de Task que no coinciden con su clave BSON.
var taskKeys = map[string]string{
	"id":          "_id",
	"assignee_id": "assigneeId",
	"created_at":  "createdAt",
	"updated_at":  "updatedAt",
}

// TaskRepoMongoDB implementa la interfaz TaskRepository para MongoDB.
type TaskRepoMongoDB struct {
	client     *mongo.Client
	tasksColl  *mongo.Collection
	outboxColl *mongo.Collection
	renderer   *mongofilter.Renderer
}

var _ taskDomain.TaskRepository = (*TaskRepoMongoDB)(nil)

// NewTaskRepoMongoDB es el constructor del repositorio.
func NewTaskRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*TaskRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &TaskRepoMongoDB{
		client:     client,
		tasksColl:  db.Collection("tasks"),
		outboxColl: db.Collection(sharedMongo.OutboxCollection),
		renderer:   mongofilter.NewRenderer(taskKeys),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Los uuid se guardan como texto para poder compararlos y buscarlos con regex.

type mongoTask struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	AssigneeID  string    `bson:"assigneeId"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// --- CRUD Transaccional ---

func (r *TaskRepoMongoDB) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(sessCtx mongo.SessionContext) error {
		if _, err := r.tasksColl.InsertOne(sessCtx, toMongoTask(t)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return taskDomain.ErrTaskAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *TaskRepoMongoDB) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(sessCtx mongo.SessionContext) error {
		mt := toMongoTask(t)
		res, err := r.tasksColl.ReplaceOne(sessCtx, bson.M{"_id": mt.ID}, mt)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return taskDomain.ErrTaskNotFound
		}
		return nil
	})
}

func (r *TaskRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(sessCtx mongo.SessionContext) error {
		res, err := r.tasksColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return taskDomain.ErrTaskNotFound
		}
		return nil
	})
}

// inTx hace write y la inserción de evt en una misma transacción.
func (r *TaskRepoMongoDB) inTx(ctx context.Context, evt sharedDomain.OutboxEvent, write func(sessCtx mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := write(sessCtx); err != nil {
			return nil, err
		}
		return nil, sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	return err
}

// --- Lectura ---

func (r *TaskRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	var mt mongoTask
	err := r.tasksColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&mt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, taskDomain.ErrTaskNotFound
		}
		return nil, err
	}
	return fromMongoTask(&mt)
}

// Count implementa query.Source.
func (r *TaskRepoMongoDB) Count(ctx context.Context, q query.Query[*taskDomain.Task]) (int, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return 0, err
	}
	n, err := r.tasksColl.CountDocuments(ctx, r.renderer.Filter(c))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Fetch implementa query.Source.
func (r *TaskRepoMongoDB) Fetch(ctx context.Context, q query.Query[*taskDomain.Task]) ([]*taskDomain.Task, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return nil, err
	}

	cursor, err := r.tasksColl.Find(ctx, r.renderer.Filter(c), r.renderer.FindOptions(c))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []*taskDomain.Task{}
	for cursor.Next(ctx) {
		var mt mongoTask
		if err := cursor.Decode(&mt); err != nil {
			return nil, err
		}
		t, err := fromMongoTask(&mt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoTask(t *taskDomain.Task) *mongoTask {
	return &mongoTask{
		ID: t.ID.String(), Title: t.Title, Description: t.Description,
		AssigneeID: t.AssigneeID.String(), Status: string(t.Status),
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func fromMongoTask(mt *mongoTask) (*taskDomain.Task, error) {
	id, err := uuid.Parse(mt.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", mt.ID, err)
	}
	assignee, err := uuid.Parse(mt.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("invalid assignee id in task %s: %w", mt.ID, err)
	}
	return &taskDomain.Task{
		ID: id, Title: mt.Title, Description: mt.Description,
		AssigneeID: assignee, Status: taskDomain.TaskStatus(mt.Status),
		CreatedAt: mt.CreatedAt.UTC(), UpdatedAt: mt.UpdatedAt.UTC(),
	}, nil
}
