package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Science Club API",
        "description": "Certificate applications, advisor approvals and the verified contact form",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Applications", "description": "Public certificate applications"},
        {"name": "Review", "description": "Admin review of applications"},
        {"name": "Advisor", "description": "Advisor approval queue"},
        {"name": "Account", "description": "Admin profile and OTP-verified changes"},
        {"name": "Contact", "description": "OTP-verified contact form"},
        {"name": "Auth", "description": "Token issuance"}
    ],
    "paths": {
        "/applications": {
            "post": {
                "tags": ["Applications"],
                "summary": "Submit or update a certificate application",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitApplicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/track": {
            "get": {
                "tags": ["Applications"],
                "summary": "Track an application by email or applicant cookie",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Status or null", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Track an application by email",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "Status or null", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/download": {
            "post": {
                "tags": ["Applications"],
                "summary": "Download an approved certificate",
                "produces": ["image/png", "application/pdf", "application/json"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "pdf"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "Certificate file or descriptor"},
                    "404": {"description": "No approved certificate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/files/{token}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Download a certificate through a signed link",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Certificate file"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contact/otp": {
            "post": {
                "tags": ["Contact"],
                "summary": "Send a contact verification code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "Code sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Mail delivery failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contact/verify": {
            "post": {
                "tags": ["Contact"],
                "summary": "Verify the code and relay the message",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactVerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Message sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid or expired code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Advisor login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/applications": {
            "get": {
                "tags": ["Review"],
                "summary": "List applications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "verified", "revision", "approved", "declined"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/applications/export": {
            "get": {
                "tags": ["Review"],
                "summary": "Export applications",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Export file"}
                }
            }
        },
        "/admin/applications/{id}": {
            "get": {
                "tags": ["Review"],
                "summary": "Get application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Review"],
                "summary": "Update application status and certificate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateApplicationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Certificate image rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Review"],
                "summary": "Delete application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/admin/statistics": {
            "get": {
                "tags": ["Review"],
                "summary": "Page view statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "days", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Review"],
                "summary": "Workflow counters snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile": {
            "get": {
                "tags": ["Account"],
                "summary": "Current admin profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile/name": {
            "put": {
                "tags": ["Account"],
                "summary": "Rename the current admin",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateNameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile/email/otp": {
            "post": {
                "tags": ["Account"],
                "summary": "Send a code to the new email address",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "Code sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already in use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile/email/verify": {
            "post": {
                "tags": ["Account"],
                "summary": "Apply the pending email change",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "Email changed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid or expired code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile/password/otp": {
            "post": {
                "tags": ["Account"],
                "summary": "Send a password change code",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PasswordChangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Code sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/profile/password/verify": {
            "post": {
                "tags": ["Account"],
                "summary": "Apply the pending password change",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "204": {"description": "Password changed"},
                    "422": {"description": "Invalid or expired code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/applications": {
            "get": {
                "tags": ["Advisor"],
                "summary": "Applications assigned to the current advisor",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/applications/{id}/approve": {
            "post": {
                "tags": ["Advisor"],
                "summary": "Approve a verified application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Assigned to another advisor", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/profile": {
            "get": {
                "tags": ["Advisor"],
                "summary": "Current advisor profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Advisor"],
                "summary": "Update the current advisor profile",
                "description": "profile_image and signature accept base64 image data URIs; replaced files are removed after the update is stored",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAdvisorProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or email taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubmitApplicationRequest": {
            "type": "object",
            "properties": {
                "applicant_name": {"type": "string"},
                "email": {"type": "string"},
                "designation": {"type": "string"},
                "member_since": {"type": "string"},
                "member_till": {"type": "string"},
                "impact": {"type": "string"}
            },
            "required": ["applicant_name", "email", "designation", "member_since", "member_till"]
        },
        "EmailRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}
            },
            "required": ["email"]
        },
        "UpdateApplicationRequest": {
            "type": "object",
            "properties": {
                "certificate_status": {"type": "string", "enum": ["pending", "verified", "revision", "declined"]},
                "note": {"type": "string"},
                "certificate_text": {"type": "string"},
                "certificate_template": {"type": "string"},
                "certificate_issued_by": {"type": "string"},
                "certificate_positions": {"type": "string"},
                "certificate_file": {"type": "string", "description": "data:image/<type>;base64,<payload>"}
            },
            "required": ["certificate_status"]
        },
        "ContactVerifyRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "subject": {"type": "string"},
                "message_text": {"type": "string"},
                "otp": {"type": "string"}
            },
            "required": ["email", "subject", "message_text", "otp"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "UpdateNameRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
        },
        "UpdateAdvisorProfileRequest": {
            "type": "object",
            "properties": {
                "advisor_name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "designation": {"type": "string"},
                "facebook_url": {"type": "string"},
                "linkedin_url": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "password_confirmation": {"type": "string"},
                "profile_image": {"type": "string", "description": "data:image/(jpeg|png|gif);base64,..."},
                "signature": {"type": "string", "description": "data:image/(jpeg|png|gif|svg+xml);base64,..."}
            },
            "required": ["advisor_name", "email", "department", "designation"]
        },
        "PasswordChangeRequest": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "password": {"type": "string"},
                "password_confirmation": {"type": "string"}
            },
            "required": ["current_password", "password", "password_confirmation"]
        },
        "VerifyOTPRequest": {
            "type": "object",
            "properties": {
                "otp": {"type": "string"}
            },
            "required": ["otp"]
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
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
