// Package docs FleetDocs API.
//
// Documentation of the FleetDocs API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://api.fleetdocs.app
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/fleetdocs/fleetdocs-api/models"
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

// swagger:route GET /api/v1/vehicles vehicles vehiclesList
// Lists the authenticated user's vehicles.
// responses:
//   200: vehiclesResponse

// The vehicles registered by the authenticated user.
// swagger:response vehiclesResponse
type vehiclesResponseWrapper struct {
	// in:body
	Body []models.Vehicle
}

// swagger:route GET /api/v1/document/{document_id} documents documentByID
// Gets a single document by ID.
// responses:
//   200: documentByIDResponse

// Shows a single document by the given {ID}
// swagger:response documentByIDResponse
type documentByIDResponseWrapper struct {
	// in:body
	Body models.Document
}
