// Package docs holds the Swagger description of the AlumniSphere API.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/alumni": {
            "get": {
                "tags": ["alumni"],
                "summary": "List alumni",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "academicUnit", "in": "query"},
                    {"type": "string", "name": "passingYear", "in": "query"},
                    {"type": "string", "name": "program", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["alumni"],
                "summary": "Create alumni",
                "description": "Accepts JSON or multipart/form-data. In forms the nested sections are JSON strings.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.AlumniRequest"}},
                    {"type": "file", "name": "qualificationImage", "in": "formData"},
                    {"type": "file", "name": "employmentDocument", "in": "formData"},
                    {"type": "file", "name": "higherEducationDocument", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Alumni"}},
                    "400": {"description": "Validation failed or registration number taken", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/alumni/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["alumni"],
                "summary": "Search alumni",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "academicUnit", "in": "query"},
                    {"type": "string", "name": "passingYear", "in": "query"},
                    {"type": "string", "name": "program", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/alumni/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["alumni"],
                "summary": "Get alumni by ID",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Alumni"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["alumni"],
                "summary": "Update alumni",
                "description": "Only the fields present are changed; nested sections merge leaf by leaf",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.AlumniRequest"}},
                    {"type": "file", "name": "qualificationImage", "in": "formData"},
                    {"type": "file", "name": "employmentDocument", "in": "formData"},
                    {"type": "file", "name": "higherEducationDocument", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Alumni"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["alumni"],
                "summary": "Delete alumni",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh access token",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RefreshTokenRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revoke a refresh token",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Request a password reset link",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ForgotPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Reset password with a token",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid, expired or used token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Get own profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update own profile",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users/me/password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Change own password",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users/me/photo": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Upload profile photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "file", "name": "photo", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "List users (admin)",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "role", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/role": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Change a user role (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete a user (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/academic-units": {
            "get": {
                "tags": ["academic-units"],
                "summary": "List academic units",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["academic-units"],
                "summary": "Create academic unit (admin)",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateAcademicUnitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/academic-units/{id}": {
            "get": {
                "tags": ["academic-units"],
                "summary": "Get academic unit",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["academic-units"],
                "summary": "Update academic unit (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateAcademicUnitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["academic-units"],
                "summary": "Delete academic unit (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/academic-units/{id}/programs": {
            "get": {
                "tags": ["academic-units"],
                "summary": "List programs of an academic unit",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/contact": {
            "post": {
                "tags": ["contact"],
                "summary": "Submit a contact message",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateContactMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contact"],
                "summary": "List contact messages (admin)",
                "parameters": [
                    {"type": "boolean", "name": "unread", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/contact/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contact"],
                "summary": "Get contact message (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["contact"],
                "summary": "Delete contact message (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/contact/{id}/read": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["contact"],
                "summary": "Mark contact message read (admin)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/settings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["settings"],
                "summary": "Get own settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["settings"],
                "summary": "Update own settings",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.UserSettingsPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["settings"],
                "summary": "Reset own settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "pagination": {"$ref": "#/definitions/dto.PaginationInfo"},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.PaginationInfo": {
            "type": "object",
            "properties": {
                "currentPage": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalItems": {"type": "integer"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "field": {"type": "string"},
                "severity": {"type": "string"},
                "details": {}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.AlumniRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Jane Doe"},
                "academicUnit": {"type": "string", "example": "School of Engineering"},
                "program": {"type": "string", "example": "B.Tech CS"},
                "passingYear": {"type": "string", "example": "2019-20"},
                "registrationNumber": {"type": "string", "example": "REG-001"},
                "contactDetails": {"type": "object"},
                "qualifiedExams": {"type": "object"},
                "employment": {"type": "object"},
                "higherEducation": {"type": "object"}
            }
        },
        "models.Alumni": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "academicUnit": {"type": "string"},
                "program": {"type": "string"},
                "passingYear": {"type": "string"},
                "registrationNumber": {"type": "string"},
                "contactDetails": {"type": "object", "properties": {"email": {"type": "string"}, "phone": {"type": "string"}, "address": {"type": "string"}}},
                "qualifiedExams": {"type": "object", "properties": {"examName": {"type": "string"}, "rollNumber": {"type": "string"}, "certificateUrl": {"type": "string"}}},
                "employment": {"type": "object", "properties": {"type": {"type": "string"}, "employerName": {"type": "string"}, "employerContact": {"type": "string"}, "employerEmail": {"type": "string"}, "documentUrl": {"type": "string"}, "selfEmploymentDetails": {"type": "string"}}},
                "higherEducation": {"type": "object", "properties": {"institutionName": {"type": "string"}, "programName": {"type": "string"}, "documentUrl": {"type": "string"}}},
                "createdBy": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "dto.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "dto.ResetPasswordRequest": {
            "type": "object",
            "required": ["token", "newPassword"],
            "properties": {"token": {"type": "string"}, "newPassword": {"type": "string", "minLength": 8}}
        },
        "dto.UpdateProfileRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}}
        },
        "dto.ChangePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "newPassword"],
            "properties": {"currentPassword": {"type": "string"}, "newPassword": {"type": "string", "minLength": 8}}
        },
        "dto.UpdateRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {"role": {"type": "string", "enum": ["user", "staff", "admin"]}}
        },
        "dto.CreateAcademicUnitRequest": {
            "type": "object",
            "required": ["name", "code"],
            "properties": {
                "name": {"type": "string", "example": "School of Engineering"},
                "code": {"type": "string", "example": "ENG"},
                "description": {"type": "string"},
                "programs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.UpdateAcademicUnitRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "description": {"type": "string"},
                "programs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.CreateContactMessageRequest": {
            "type": "object",
            "required": ["name", "email", "subject", "message"],
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "subject": {"type": "string"}, "message": {"type": "string"}}
        },
        "models.UserSettingsPatch": {
            "type": "object",
            "properties": {
                "theme": {"type": "string", "enum": ["light", "dark", "system"]},
                "language": {"type": "string"},
                "timezone": {"type": "string"},
                "itemsPerPage": {"type": "integer"},
                "notifications": {"type": "object", "properties": {"email": {"type": "boolean"}, "sms": {"type": "boolean"}, "newsletter": {"type": "boolean"}}}
            }
        },
        "dto.RefreshTokenRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {"refreshToken": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT token for authorization",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "AlumniSphere API",
	Description:      "Alumni records, accounts, academic units, contact messages and user settings",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
