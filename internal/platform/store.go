package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/supabase-community/postgrest-go"
)

// RESTStore wraps the PostgREST client for row access to the platform
// tables. It always authenticates with the service-role key: row security
// is the platform's concern, access control is enforced by the gate chain
// in front of the handlers.
type RESTStore struct {
	client *postgrest.Client
}

func NewRESTStore(baseURL, serviceRoleKey string) *RESTStore {
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "public", map[string]string{
		"apikey": serviceRoleKey,
	})
	return &RESTStore{client: client.TokenAuth(serviceRoleKey)}
}

func (s *RESTStore) Select(_ context.Context, table string, q Query, dest interface{}) error {
	fb := s.client.From(table).Select(selectColumns(q), "", false)
	data, _, err := applyQuery(fb, q).Execute()
	if err != nil {
		return translateStoreError(err)
	}
	return decodeInto(data, dest)
}

func (s *RESTStore) SelectOne(_ context.Context, table string, q Query, dest interface{}) error {
	fb := s.client.From(table).Select(selectColumns(q), "", false)
	data, _, err := applyQuery(fb, q).Single().Execute()
	if err != nil {
		return translateStoreError(err)
	}
	return decodeInto(data, dest)
}

func (s *RESTStore) Insert(_ context.Context, table string, row, dest interface{}) error {
	fb := s.client.From(table).Insert(row, false, "", returning(dest), "")
	if dest != nil {
		fb = fb.Single()
	}
	data, _, err := fb.Execute()
	if err != nil {
		return translateStoreError(err)
	}
	return decodeInto(data, dest)
}

func (s *RESTStore) Update(_ context.Context, table string, q Query, patch, dest interface{}) error {
	fb := applyQuery(s.client.From(table).Update(patch, returning(dest), ""), q)
	if dest != nil {
		fb = fb.Single()
	}
	data, _, err := fb.Execute()
	if err != nil {
		return translateStoreError(err)
	}
	return decodeInto(data, dest)
}

func (s *RESTStore) Delete(_ context.Context, table string, q Query) error {
	_, _, err := applyQuery(s.client.From(table).Delete("minimal", ""), q).Execute()
	if err != nil {
		return translateStoreError(err)
	}
	return nil
}

func selectColumns(q Query) string {
	if q.Select == "" {
		return "*"
	}
	return q.Select
}

func returning(dest interface{}) string {
	if dest == nil {
		return "minimal"
	}
	return "representation"
}

// applyQuery adds the equality filters and the "column.direction" ordering
// of a Query to a filter builder.
func applyQuery(fb *postgrest.FilterBuilder, q Query) *postgrest.FilterBuilder {
	for _, f := range q.Filters {
		fb = fb.Eq(f.Column, f.Value)
	}
	if q.Order != "" {
		column, direction, _ := strings.Cut(q.Order, ".")
		fb = fb.Order(column, &postgrest.OrderOpts{Ascending: direction != "desc"})
	}
	return fb
}

func decodeInto(data []byte, dest interface{}) error {
	if dest == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// The client reports a failed request as "(code) message", with the
// PostgREST error code in the parentheses.
var storeErrPattern = regexp.MustCompile(`(?s)^\(([A-Za-z0-9]+)\) (.*)$`)

func translateStoreError(err error) error {
	m := storeErrPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	status := http.StatusBadRequest
	switch m[1] {
	case CodeUniqueViolation:
		status = http.StatusConflict
	case codeNoRows:
		status = http.StatusNotAcceptable
	}
	return &Error{Status: status, Code: m[1], Message: m[2]}
}

var _ Store = (*RESTStore)(nil)
