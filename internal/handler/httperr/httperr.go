package httperr

import (
	"net/http"

	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := NewResponse(status, err, msg)
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// NewResponse builds the error body for err. Errors without a domain code are
// INVALID_REQUEST below 500 and INTERNAL otherwise.
func NewResponse(status int, err error, msg string) Response {
	resp := Response{Status: status}
	resp.Error.Code = errs.Code(err)
	if resp.Error.Code == errs.CodeInternal && status < http.StatusInternalServerError {
		resp.Error.Code = errs.CodeInvalidRequest
	}
	resp.Error.Message = msg
	return resp
}

// FromError maps err to its status and wire code.
func FromError(err error) Response {
	status, msg := StatusFor(err)
	return NewResponse(status, err, msg)
}

// AbortWithDomainError picks the status from the error's sentinel.
func AbortWithDomainError(c *gin.Context, err error) {
	resp := FromError(err)
	AbortWithError(c, resp.Status, err, resp.Error.Message, nil)
}

func StatusFor(err error) (int, string) {
	switch {
	case errs.Is(err, errs.ErrInvalidSlotIdentifier):
		return http.StatusBadRequest, "Invalid slot identifier"
	case errs.Is(err, errs.ErrInvalidSubject):
		return http.StatusBadRequest, "Invalid subject"
	case errs.Is(err, reservation.ErrAttachmentRefTooLong):
		return http.StatusBadRequest, "Attachment reference too long"
	case errs.Is(err, errs.ErrSlotNotFound):
		return http.StatusNotFound, "Slot not found"
	case errs.Is(err, errs.ErrNoSpotsAvailable):
		return http.StatusConflict, "No spots available"
	case errs.Is(err, errs.ErrAlreadyReserved):
		return http.StatusConflict, "Already reserved for this activity"
	case errs.Is(err, errs.ErrTransactionAborted):
		return http.StatusServiceUnavailable, "Busy, please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
