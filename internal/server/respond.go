package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// errorBody is the JSON error envelope every failing request returns.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := codeFor(err)

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = errors.UserMessage(err)
	s.writeJSON(w, statusFor(code), body)
}

// codeFor resolves the structured code of an error. Sentinel errors
// from the state core carry no code of their own and are translated
// here.
func codeFor(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	switch {
	case stderrors.Is(err, hypergraph.ErrNotFound):
		return errors.ErrCodeNotFound
	case stderrors.Is(err, hypergraph.ErrNotVisible):
		return errors.ErrCodeNotVisible
	case stderrors.Is(err, hypergraph.ErrInvalidID):
		return errors.ErrCodeInvalidID
	case stderrors.Is(err, hypergraph.ErrDuplicateID):
		return errors.ErrCodeDuplicateID
	case stderrors.Is(err, hypergraph.ErrInvalidStyle):
		return errors.ErrCodeInvalidStyle
	case stderrors.Is(err, hypergraph.ErrUnknownEndpoint),
		stderrors.Is(err, hypergraph.ErrHierarchyCycle):
		return errors.ErrCodeInvalidDocument
	case stderrors.Is(err, hypergraph.ErrInvariant):
		return errors.ErrCodeInvariant
	default:
		return errors.ErrCodeInternal
	}
}

// statusFor maps structured error codes onto HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound,
		errors.ErrCodeGraphNotFound,
		errors.ErrCodeViewNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidID,
		errors.ErrCodeInvalidStyle,
		errors.ErrCodeInvalidDocument,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeDuplicateID,
		errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotVisible:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
