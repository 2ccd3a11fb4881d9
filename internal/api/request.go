package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SelectionRequest replaces a session's selection. Years and statementTypes
// must both be present; an empty list selects nothing on that axis.
type SelectionRequest struct {
	Years          *[]int    `json:"years" validate:"required"`
	StatementTypes *[]string `json:"statementTypes" validate:"required"`
	Screen         string    `json:"screen,omitempty" validate:"omitempty,max=64"`
}

// Selection returns the requested selection.
func (r SelectionRequest) Selection() domain.Selection {
	return domain.Selection{
		Years:          append([]int{}, (*r.Years)...),
		StatementTypes: append([]string{}, (*r.StatementTypes)...),
	}
}

// CreateSessionRequest is the optional body of POST /sessions. A missing
// selection starts the session on every Year and Statement Type.
type CreateSessionRequest struct {
	Selection *domain.Selection `json:"selection,omitempty"`
	Screen    string            `json:"screen,omitempty" validate:"omitempty,max=64"`
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// An empty body is allowed when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("invalid JSON request body: %w", err)
	}
	return validateStruct(dst)
}

// validateStruct runs struct-tag validation and flattens the failures into
// one message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New("validation failed: " + strings.Join(msgs, "; "))
}

// parseSelection reads the facet selection from the query string. Both
// "year" and "statement" accept repeated parameters and comma-separated
// lists. An absent parameter is an empty set on that axis.
func parseSelection(q url.Values) (domain.Selection, error) {
	sel := domain.Selection{Years: []int{}, StatementTypes: []string{}}

	for _, raw := range splitValues(q["year"]) {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Selection{}, fmt.Errorf("invalid year %q", raw)
		}
		sel.Years = append(sel.Years, y)
	}
	sel.StatementTypes = append(sel.StatementTypes, splitValues(q["statement"])...)

	if err := validateStruct(sel); err != nil {
		return domain.Selection{}, err
	}
	return sel, nil
}

// parseLimit reads the "n" parameter; absent means -1 (configured default).
func parseLimit(q url.Values) (int, error) {
	raw := q.Get("n")
	if raw == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid n %q", raw)
	}
	return n, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
