package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type ActivateAccountMessage struct {
	Code string `json:"code"`
}

func (e ActivateAccountMessage) Type() string { return "user.activate" }

type ActivateAccountHandler struct {
	repo RepositoryManager
}

func NewActivateAccountHandler(repo RepositoryManager) *ActivateAccountHandler {
	return &ActivateAccountHandler{repo: repo}
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) (*User, error) {
	if event.Code == "" {
		return nil, goerrors.New("activation code is required", goerrors.CategoryBadInput).
			WithTextCode("CODE_REQUIRED")
	}

	user, err := h.repo.Users().GetByEmailCode(ctx, event.Code)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, goerrors.New("unknown activation code", goerrors.CategoryNotFound).
				WithTextCode("CODE_UNKNOWN")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not look up activation code")
	}

	user, err = h.repo.Users().Confirm(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not confirm account")
	}

	return user, nil
}
