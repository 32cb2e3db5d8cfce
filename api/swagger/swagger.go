package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIGA API",
        "description": "Academic management API: identity, catalog, enrollment, grading, attendance and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session lifecycle"},
        {"name": "Users", "description": "Account management"},
        {"name": "Terms", "description": "Academic term lifecycle"},
        {"name": "Subjects", "description": "Subject catalog"},
        {"name": "Sections", "description": "Section offerings and rosters"},
        {"name": "Enrollment", "description": "Subject registration"},
        {"name": "Grades", "description": "Category scores and averages"},
        {"name": "Attendance", "description": "Presence tracking"},
        {"name": "Observations", "description": "Professor notes"},
        {"name": "Reports", "description": "Dashboards, alerts and exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair and profile", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials or role mismatch"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "Session revoked"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated users", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already exists"}
                }
            }
        },
        "/terms/active": {
            "get": {
                "tags": ["Terms"],
                "summary": "Get active term",
                "responses": {
                    "200": {"description": "Active term"},
                    "412": {"description": "No active term"}
                }
            }
        },
        "/sections/available": {
            "get": {
                "tags": ["Sections"],
                "summary": "Sections the student can still register in",
                "responses": {
                    "200": {"description": "Available sections"}
                }
            }
        },
        "/enrollment": {
            "post": {
                "tags": ["Enrollment"],
                "summary": "Register in a section",
                "responses": {
                    "201": {"description": "Registered"},
                    "409": {"description": "Subject limit or capacity exceeded"},
                    "412": {"description": "No active term"}
                }
            }
        },
        "/grades/{id}": {
            "put": {
                "tags": ["Grades"],
                "summary": "Record category scores",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated record with recomputed average"}
                }
            }
        },
        "/attendance/{id}/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance summary with percentage and at-risk flag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Summary"}
                }
            }
        },
        "/reports/dashboard": {
            "get": {
                "tags": ["Reports"],
                "summary": "Director dashboard",
                "responses": {
                    "200": {"description": "Aggregates for the active term"}
                }
            }
        },
        "/reports/consolidated/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download consolidated report",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["identifier", "password", "role"],
            "properties": {
                "identifier": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["DIRECTOR", "PROFESSOR", "STUDENT", "ADMIN"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
