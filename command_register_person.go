package auth

import (
	"context"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// AvatarUpload carries an incoming avatar file.
type AvatarUpload struct {
	FileName string
	Content  io.Reader
}

type RegisterPersonMessage struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
	Avatar   *AvatarUpload
}

func (e RegisterPersonMessage) Type() string { return "person.register" }

// RegisterPersonHandler creates an account, hashing the password and
// writing the avatar file inside the same transaction. If any step fails
// the whole registration rolls back, avatar file included.
type RegisterPersonHandler struct {
	repo    RepositoryManager
	avatars *AvatarStore
}

func NewRegisterPersonHandler(repo RepositoryManager, avatars *AvatarStore) *RegisterPersonHandler {
	return &RegisterPersonHandler{repo: repo, avatars: avatars}
}

func (h *RegisterPersonHandler) Execute(ctx context.Context, event RegisterPersonMessage) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during person registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterPersonHandler) execute(ctx context.Context, event RegisterPersonMessage) (int64, error) {
	person := &Person{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !event.Role.IsValid() {
		return 0, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": string(event.Role)})
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Advisory check for a friendly error. The unique constraint on
		// login is the real guarantee; a concurrent insert still surfaces
		// as ErrUsernameTaken from CreateTx.
		if _, err := h.repo.Persons().GetByLoginTx(ctx, tx, event.Username); err == nil {
			return ErrUsernameTaken
		} else if !goerrors.IsNotFound(err) {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		person.Login = event.Username
		person.PasswordHash = hash
		person.Role = event.Role
		if event.Avatar != nil {
			person.Avatar = RandomFileName(event.Avatar.FileName)
		}

		if err := h.repo.Persons().CreateTx(ctx, tx, person); err != nil {
			return err
		}

		if event.Avatar != nil {
			if err := h.avatars.Save(person.ID, person.Avatar, event.Avatar.Content); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return 0, richErr
		}

		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "person registration transaction failed")
	}

	return person.ID, nil
}
