// Package docs AutoServ API.
//
// Documentation of the AutoServ marketplace API.
//
//	Schemes: https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- basic
//
//	SecurityDefinitions:
//	basic:
//	  type: basic
//
// swagger:meta
package docs

import (
	"github.com/autoserv-ro/autoserv-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/request/{request_id} requests requestByID
// Gets a single service request by ID.
// responses:
//   200: requestByIDResponse

// Shows a single service request by the given {ID}
// swagger:response requestByIDResponse
type requestByIDResponseWrapper struct {
	// in:body
	Body models.Request
}

// swagger:route GET /api/v1/conversations messages conversationList
// Lists the caller's conversations with last message and unread count.
// responses:
//   200: conversationListResponse

// The caller's conversation list, newest first.
// swagger:response conversationListResponse
type conversationListResponseWrapper struct {
	// in:body
	Body []models.Conversation
}
