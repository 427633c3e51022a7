package ticket_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/outbox"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/ticket"
	"stockroom/internal/infrastructure/storage/memstore"
)

type fixture struct {
	db        *memstore.DB
	svc       *ticket.Service
	store     *catalog.Store
	admin     context.Context
	manager   context.Context
	managerID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	adminID, managerID := id.New(), id.New()
	f := &fixture{
		db:        db,
		managerID: managerID,
		admin:     as(appctx.RoleAdmin, adminID),
		manager:   as(appctx.RoleStoreManager, managerID),
	}
	f.store = &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: adminID, ManagerID: &managerID, IsActive: true}
	require.NoError(t, db.Catalog().CreateStore(f.admin, f.store))
	f.svc = ticket.NewService(db.Tickets(), db.Catalog(), &numerator.MockGenerator{}, db, db.Outbox(), db.History())
	return f
}

func as(role appctx.Role, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}

func (f *fixture) raise(t *testing.T) *ticket.Ticket {
	t.Helper()
	tk, err := f.svc.Create(f.manager, ticket.CreateRequest{
		StoreID:         f.store.ID,
		QuantityMissing: 3,
		Description:     "Shelf short after delivery",
	})
	require.NoError(t, err)
	return tk
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	tk := f.raise(t)

	assert.Equal(t, ticket.StatusOpen, tk.Status)
	assert.Equal(t, ticket.PriorityMedium, tk.Priority)
	assert.Equal(t, f.managerID, tk.RaisedBy)
	assert.Regexp(t, `^TKT-\d{4}-00001$`, tk.TicketNumber)

	comments, err := f.svc.Comments(f.manager, tk.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].IsSystem)
}

func TestCreate_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.manager, ticket.CreateRequest{StoreID: f.store.ID, Description: "  "})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Create(f.manager, ticket.CreateRequest{StoreID: f.store.ID, Description: "x", Priority: "urgent"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	stranger := as(appctx.RoleStoreManager, id.New())
	_, err = f.svc.Create(stranger, ticket.CreateRequest{StoreID: f.store.ID, Description: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	foreign := &catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Other", SKU: "O-1", AdminID: id.New(), IsActive: true}
	require.NoError(t, f.db.Catalog().CreateProduct(f.admin, foreign))
	_, err = f.svc.Create(f.manager, ticket.CreateRequest{StoreID: f.store.ID, ProductID: &foreign.ID, Description: "x"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	tk := f.raise(t)

	_, err := f.svc.Resolve(f.admin, tk.ID, "restocked")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition), "open cannot close")

	_, err = f.svc.Acknowledge(f.admin, tk.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied), "admins do not acknowledge")

	tk, err = f.svc.Acknowledge(f.manager, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusInProgress, tk.Status)

	_, err = f.svc.Resolve(f.manager, tk.ID, "restocked")
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	_, err = f.svc.Resolve(f.admin, tk.ID, " ")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	tk, err = f.svc.Resolve(f.admin, tk.ID, "restocked")
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusClosed, tk.Status)
	assert.Equal(t, "restocked", tk.ActionTaken)
	require.NotNil(t, tk.ResolvedAt)
	require.NotNil(t, tk.ResolvedBy)

	desc := "edited"
	_, err = f.svc.Update(f.admin, tk.ID, ticket.UpdateRequest{Description: &desc})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "closed tickets are frozen")

	tk, err = f.svc.Reopen(f.manager, tk.ID, "still short")
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusOpen, tk.Status)
	assert.Nil(t, tk.ResolvedAt)

	comments, err := f.svc.Comments(f.admin, tk.ID)
	require.NoError(t, err)
	require.Len(t, comments, 4)
	assert.Equal(t, "Ticket resolved: restocked", comments[2].Body)
	assert.Equal(t, "Ticket reopened: still short", comments[3].Body)

	events := f.db.Outbox().Events(outbox.EventTicketChanged)
	require.Len(t, events, 3)
	payload, ok := events[1].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ticket.StatusClosed, payload["to"])
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	tk := f.raise(t)

	high := "high"
	qty := int64(7)
	updated, err := f.svc.Update(f.manager, tk.ID, ticket.UpdateRequest{Priority: &high, QuantityMissing: &qty})
	require.NoError(t, err)
	assert.Equal(t, ticket.PriorityHigh, updated.Priority)
	assert.Equal(t, int64(7), updated.QuantityMissing)

	byAdmin, err := f.svc.Create(f.admin, ticket.CreateRequest{StoreID: f.store.ID, Description: "count mismatch"})
	require.NoError(t, err)
	_, err = f.svc.Update(f.manager, byAdmin.ID, ticket.UpdateRequest{Priority: &high})
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	negative := int64(-1)
	_, err = f.svc.Update(f.admin, byAdmin.ID, ticket.UpdateRequest{QuantityMissing: &negative})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t)
	first := f.raise(t)
	f.raise(t)
	_, err := f.svc.Acknowledge(f.manager, first.ID)
	require.NoError(t, err)

	list, err := f.svc.List(f.admin, ticket.Filter{Status: ticket.StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	list, err = f.svc.List(f.admin, ticket.Filter{Search: "SHELF"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)

	list, err = f.svc.List(as(appctx.RoleAdmin, id.New()), ticket.Filter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	stats, err := f.svc.Stats(f.manager, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, &ticket.Stats{Total: 2, Open: 1, InProgress: 1}, stats)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	tk := f.raise(t)

	_, err := f.svc.AddComment(f.admin, tk.ID, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	c, err := f.svc.AddComment(f.admin, tk.ID, "checking the delivery note")
	require.NoError(t, err)
	assert.False(t, c.IsSystem)

	_, err = f.svc.AddComment(as(appctx.RoleAdmin, id.New()), tk.ID, "hi")
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))
}
