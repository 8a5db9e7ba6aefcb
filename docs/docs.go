// Package docs registers the OpenAPI document served at /v1/swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Service health", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/profiles/{id}": {
            "get": {"tags": ["profiles"], "summary": "Get a profile", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Profile ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Create or update a profile",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Profile ID", "name": "id", "in": "path", "required": true},
                               {"description": "Profile JSON", "name": "profile", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.SaveProfileRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                              "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/jobs": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["jobs"], "summary": "Create a new job",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"description": "Job JSON", "name": "job", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.JobRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                              "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                              "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/jobs/{id}": {
            "get": {"tags": ["jobs"], "summary": "Get job details", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["jobs"], "summary": "Update a job",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true},
                               {"description": "Job JSON", "name": "job", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.JobRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/jobs/recommended": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["jobs"], "summary": "Recommended jobs for an applicant", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Applicant profile ID", "name": "applicant_id", "in": "query"},
                               {"type": "integer", "description": "Maximum results", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/jobs/{id}/candidates": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["jobs"], "summary": "Ranked applicants for a job", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true},
                               {"type": "string", "description": "Employer profile ID", "name": "owner_id", "in": "query"},
                               {"type": "integer", "description": "Minimum match score 0-100", "name": "min_score", "in": "query"},
                               {"type": "integer", "description": "Maximum results", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/swipe": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["swipes"], "summary": "Record a swipe",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"description": "Swipe JSON", "name": "swipe", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.SwipeRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                              "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/swipes/state": {
            "get": {"tags": ["swipes"], "summary": "Swipe state of an applicant/job pair", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "applicant_id", "in": "query", "required": true},
                               {"type": "string", "name": "job_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/matches": {
            "get": {"tags": ["swipes"], "summary": "List matches", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "applicant_id", "in": "query"},
                               {"type": "string", "name": "job_id", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/match/score": {
            "post": {"tags": ["match"], "summary": "Score an applicant against a job",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"description": "Applicant and job", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.MatchScoreRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/negotiate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["negotiations"], "summary": "Run a salary negotiation",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"description": "Negotiation input", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/v1.NegotiateRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}},
                              "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}},
                              "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/negotiations/{id}": {
            "get": {"tags": ["negotiations"], "summary": "Get a negotiation session", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/negotiations/{id}/cancel": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["negotiations"], "summary": "Cancel a running negotiation", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                              "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "definitions": {
        "response.Response": {"type": "object", "properties": {
            "success": {"type": "boolean"}, "message": {"type": "string"}, "data": {},
            "error": {}, "request_id": {"type": "string"}}},
        "v1.SaveProfileRequest": {"type": "object", "required": ["role"], "properties": {
            "role": {"type": "string", "enum": ["applicant", "employer"]}, "full_name": {"type": "string"},
            "resume_text": {"type": "string"}, "skills": {"type": "array", "items": {"type": "string"}},
            "salary_expectation": {"type": "number"}}},
        "v1.JobRequest": {"type": "object", "required": ["title"], "properties": {
            "owner_id": {"type": "string"}, "title": {"type": "string"}, "description": {"type": "string"},
            "requirements": {"type": "array", "items": {"type": "string"}},
            "budget_min": {"type": "number"}, "budget_max": {"type": "number"}}},
        "v1.SwipeRequest": {"type": "object", "required": ["userId", "targetId", "action", "userRole"], "properties": {
            "userId": {"type": "string"}, "targetId": {"type": "string"},
            "action": {"type": "string", "enum": ["like", "dislike"]},
            "userRole": {"type": "string", "enum": ["applicant", "employer", "hr"]}, "jobId": {"type": "string"}}},
        "v1.MatchScoreRequest": {"type": "object", "required": ["applicantId", "jobId"], "properties": {
            "applicantId": {"type": "string"}, "jobId": {"type": "string"}}},
        "v1.NegotiateRequest": {"type": "object", "required": ["candidateId", "jobId"], "properties": {
            "sessionId": {"type": "string"}, "candidateId": {"type": "string"}, "jobId": {"type": "string"},
            "employerBudget": {"type": "number"}, "candidateTargetSalary": {"type": "number"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "SwiftJobs API",
	Description:      "Matching, swipes and salary negotiation for the SwiftJobs job marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
