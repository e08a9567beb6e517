package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ContentTypeProblemJSON is the media type for problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns a domain or application error into a problem. It reports
// false for errors it does not know.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ChainedResponder writes problems, resolving errors through its mappers in
// order. Unmapped errors become ErrInternal.
type ChainedResponder struct {
	baseURI string
	mappers []ErrorMapper
}

// NewChainedResponder creates a responder. baseURI prefixes relative problem
// types and may be empty.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{baseURI: baseURI, mappers: mappers}
}

// Respond writes problem. The request path becomes the instance, and the
// active trace id is attached so operators can find the request's spans.
func (r *ChainedResponder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		problem = problem.WithExtension("traceId", sc.TraceID().String())
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err and writes the resulting problem.
func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	r.Respond(c, ErrInternal.WithDetail(err.Error()))
}
