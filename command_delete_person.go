package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type DeletePersonMessage struct {
	ID int64 `json:"id"`
}

func (e DeletePersonMessage) Type() string { return "person.delete" }

// DeletePersonHandler removes an account together with its addresses and
// avatar files. Deleting a missing account is a no-op.
type DeletePersonHandler struct {
	repo    RepositoryManager
	avatars *AvatarStore
	logger  Logger
}

func NewDeletePersonHandler(repo RepositoryManager, avatars *AvatarStore) *DeletePersonHandler {
	return &DeletePersonHandler{repo: repo, avatars: avatars, logger: defLogger{}}
}

func (h *DeletePersonHandler) WithLogger(logger Logger) *DeletePersonHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeletePersonHandler) Execute(ctx context.Context, event DeletePersonMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during person deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeletePersonHandler) execute(ctx context.Context, event DeletePersonMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Addresses().DeleteByOwnerTx(ctx, tx, event.ID); err != nil {
			return err
		}
		return h.repo.Persons().DeleteTx(ctx, tx, event.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "person deletion transaction failed")
	}

	if err := h.avatars.RemoveAll(event.ID); err != nil {
		h.logger.Warn("failed to remove avatar directory: %s", err)
	}

	return nil
}
