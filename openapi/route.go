package openapi

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

const jsonContentType = "application/json"

type RouteBuilder struct {
	doc       *Document
	method    string
	path      string
	operation *openapi3.Operation
}

func (rb *RouteBuilder) Summary(summary string) *RouteBuilder {
	rb.operation.Summary = summary
	return rb
}

func (rb *RouteBuilder) Description(description string) *RouteBuilder {
	rb.operation.Description = description
	return rb
}

func (rb *RouteBuilder) OperationID(id string) *RouteBuilder {
	rb.operation.OperationID = id
	return rb
}

func (rb *RouteBuilder) Tags(tags ...string) *RouteBuilder {
	rb.operation.Tags = append(rb.operation.Tags, tags...)
	return rb
}

func (rb *RouteBuilder) QueryParam(name, description string, required bool) *RouteBuilder {
	param := openapi3.NewQueryParameter(name).
		WithDescription(description).
		WithRequired(required).
		WithSchema(openapi3.NewStringSchema())
	rb.operation.AddParameter(param)
	return rb
}

func (rb *RouteBuilder) Body(example any, description string) *RouteBuilder {
	rb.operation.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithDescription(description).
			WithRequired(true).
			WithContent(openapi3.Content{
				jsonContentType: openapi3.NewMediaType().WithSchemaRef(rb.doc.schemaFor(example)),
			}),
	}
	return rb
}

func (rb *RouteBuilder) Response(statusCode int, example any, description string) *RouteBuilder {
	response := openapi3.NewResponse().WithDescription(description)
	if example != nil {
		response.Content = openapi3.Content{
			jsonContentType: openapi3.NewMediaType().WithSchemaRef(rb.doc.schemaFor(example)),
		}
	}
	rb.operation.AddResponse(statusCode, response)
	return rb
}

// ResponseHeader documents a string header on an already declared response.
func (rb *RouteBuilder) ResponseHeader(statusCode int, name, description string) *RouteBuilder {
	ref := rb.operation.Responses.Value(strconv.Itoa(statusCode))
	if ref == nil || ref.Value == nil {
		return rb
	}
	if ref.Value.Headers == nil {
		ref.Value.Headers = make(openapi3.Headers)
	}
	ref.Value.Headers[name] = &openapi3.HeaderRef{
		Value: &openapi3.Header{
			Parameter: openapi3.Parameter{
				Description: description,
				Schema:      openapi3.NewStringSchema().NewRef(),
			},
		},
	}
	return rb
}

func (rb *RouteBuilder) Build() {
	rb.doc.addOperation(rb.method, rb.path, rb.operation)
}
