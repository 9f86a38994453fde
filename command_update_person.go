package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdatePersonMessage struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	// NewPassword replaces the stored hash only when non empty.
	NewPassword string   `json:"new_password"`
	Role        UserRole `json:"role"`
	Avatar      *AvatarUpload
}

func (e UpdatePersonMessage) Type() string { return "person.update" }

// UpdatePersonHandler edits an account. A replacement avatar is written
// before the old file is removed, so a failure never leaves the account
// without an avatar file.
type UpdatePersonHandler struct {
	repo    RepositoryManager
	avatars *AvatarStore
	logger  Logger
}

func NewUpdatePersonHandler(repo RepositoryManager, avatars *AvatarStore) *UpdatePersonHandler {
	return &UpdatePersonHandler{repo: repo, avatars: avatars, logger: defLogger{}}
}

func (h *UpdatePersonHandler) WithLogger(logger Logger) *UpdatePersonHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdatePersonHandler) Execute(ctx context.Context, event UpdatePersonMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during person update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePersonHandler) execute(ctx context.Context, event UpdatePersonMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !event.Role.IsValid() {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": string(event.Role)})
	}

	var oldAvatar string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		person, err := h.repo.Persons().GetByIDTx(ctx, tx, event.ID)
		if err != nil {
			return err
		}

		// The taken check only applies when the login actually changes,
		// otherwise the account would collide with itself.
		if event.Username != person.Login {
			if _, err := h.repo.Persons().GetByLoginTx(ctx, tx, event.Username); err == nil {
				return ErrUsernameTaken
			} else if !goerrors.IsNotFound(err) {
				return err
			}
		}

		person.Login = event.Username
		person.Role = event.Role

		if event.NewPassword != "" {
			hash, err := HashPassword(event.NewPassword)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
			}
			person.PasswordHash = hash
		}

		if event.Avatar != nil {
			oldAvatar = person.Avatar
			person.Avatar = RandomFileName(event.Avatar.FileName)
			if err := h.avatars.Save(person.ID, person.Avatar, event.Avatar.Content); err != nil {
				return err
			}
		}

		return h.repo.Persons().UpdateTx(ctx, tx, person)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "person update transaction failed")
	}

	// Old file removal is best effort, the record already points at the
	// new avatar.
	if oldAvatar != "" {
		if err := h.avatars.Remove(event.ID, oldAvatar); err != nil {
			h.logger.Warn("failed to remove replaced avatar: %s", err)
		}
	}

	return nil
}
