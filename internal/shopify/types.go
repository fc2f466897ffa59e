package shopify

import "encoding/json"

// graphQLRequest is the POST body of an Admin GraphQL call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the standard GraphQL envelope. Data stays raw so each
// operation decodes only the shape it asked for.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// userError is a field-level validation error from a mutation payload.
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// pageInfo is the cursor envelope of a paginated connection.
type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// userErrorMessages flattens userErrors into display strings, prefixing the
// offending field path when present.
func userErrorMessages(errs []userError) []string {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			msgs = append(msgs, joinPath(e.Field)+": "+e.Message)
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
