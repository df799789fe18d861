package handler

import (
	"errors"

	"user-management-service/internal/repo"
	"user-management-service/internal/service"
	httpez "user-management-service/internal/transport/http/ez"
)

const msgUserNotFound = "user not found"

// mapErr 把 service/repo 的领域错误翻译成 AErr；其余原样返回，由 ez.Abort 兜底 500
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return httpez.NotFound(msgUserNotFound)
	case errors.Is(err, service.ErrEmailTaken):
		return httpez.Conflict(service.ErrEmailTaken.Error())
	case errors.Is(err, service.ErrInvalidValue):
		return httpez.BadRequest(err.Error())
	case errors.Is(err, service.ErrBadCredentials):
		return httpez.BadRequest(service.ErrBadCredentials.Error())
	}
	return err
}
