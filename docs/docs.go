// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}}},
        "/v1/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/auth/token": {"post": {"tags": ["auth"], "summary": "Issue an access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "429": {"description": "Too Many Requests"}}}},
        "/v1/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create user", "responses": {"201": {"description": "Created"}}}
        },
        "/v1/users/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/v1/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update user", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete user", "responses": {"204": {"description": "No Content"}}}
        },
        "/v1/coupons": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "List coupons", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Create coupon", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/v1/coupons/upload": {"post": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Upload coupons", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/coupons/upload-excel": {"post": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Upload coupons from a spreadsheet", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/coupons/my-created": {"get": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Coupons created by me", "responses": {"200": {"description": "OK"}}}},
        "/v1/coupons/unassigned": {"get": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Unassigned coupons", "responses": {"200": {"description": "OK"}}}},
        "/v1/coupons/assignment-titles": {"get": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Assignment titles", "responses": {"200": {"description": "OK"}}}},
        "/v1/coupons/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Get coupon", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Update coupon", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["coupons"], "summary": "Delete coupon", "responses": {"204": {"description": "No Content"}}}
        },
        "/v1/assignments": {"post": {"security": [{"BearerAuth": []}], "tags": ["assignments"], "summary": "Assign a coupon to a user", "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/v1/assignments/bulk": {"post": {"security": [{"BearerAuth": []}], "tags": ["assignments"], "summary": "Assign coupons in bulk", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/v1/assignments/by-title": {"post": {"security": [{"BearerAuth": []}], "tags": ["assignments"], "summary": "Assign coupons by title", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/v1/assignments/mine": {"get": {"security": [{"BearerAuth": []}], "tags": ["assignments"], "summary": "My coupons", "responses": {"200": {"description": "OK"}}}},
        "/v1/assignments/{id}/use": {"post": {"security": [{"BearerAuth": []}], "tags": ["assignments"], "summary": "Redeem a coupon", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/v1/audit/events": {"get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Audit events", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Coupon Service API",
	Description:      "Coupon catalogue, assignment and redemption service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
