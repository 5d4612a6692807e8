// Package docs — Swagger-спецификация в формате swaggo/swag; держится в соответствии с аннотациями
// хендлеров (internal/handlers) и при изменении API пересобирается через swag init -g cmd/main.go.
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
        "/api/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Регистрация нового пользователя",
                "parameters": [
                    {"description": "Данные регистрации", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.registerResponse"}},
                    "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "409": {"description": "Email уже зарегистрирован", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "503": {"description": "Хранилище недоступно", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "description": "Любая ошибка (нет пользователя, неверный пароль, другая роль) — одинаковый 401.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Авторизация пользователя",
                "parameters": [
                    {"description": "Данные для входа", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.loginResponse"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "503": {"description": "Хранилище недоступно", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/validate": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Токен берётся из заголовка Authorization, иначе из тела запроса.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Проверка токена",
                "parameters": [
                    {"description": "Токен", "name": "input", "in": "body", "required": false, "schema": {"$ref": "#/definitions/handlers.validateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Identity"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/me": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Профиль текущего пользователя",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/student/dashboard": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Доступна только своей роли: /api/student/dashboard, /api/faculty/dashboard, /api/admin/dashboard.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Стартовая страница роли",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "403": {"description": "forbidden", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/password/forgot": {
            "post": {
                "description": "Отправляет письмо со ссылкой для сброса пароля. Ответ всегда одинаковый, даже если e-mail не найден.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["password"],
                "summary": "Запрос восстановления пароля",
                "parameters": [
                    {"description": "Email пользователя", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.forgotReq"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/password/reset": {
            "post": {
                "description": "Устанавливает новый пароль по токену из письма. Токен одноразовый.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["password"],
                "summary": "Сброс пароля по токену",
                "parameters": [
                    {"description": "Токен и новый пароль", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.resetReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/password/change": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["password"],
                "summary": "Смена пароля (авторизованный пользователь)",
                "parameters": [
                    {"description": "Старый и новый пароль", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.changeReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/admin/users": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Список пользователей (админ)",
                "parameters": [
                    {"type": "integer", "description": "Номер страницы (начиная с 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Размер страницы", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.usersPage"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "403": {"description": "forbidden", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/admin/logs": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Строки JSON-логов за день с фильтрами по уровню, пользователю и подстроке.",
                "produces": ["application/json"],
                "tags": ["admin-logs"],
                "summary": "Логи за день",
                "parameters": [
                    {"type": "string", "description": "Дата (YYYY-MM-DD)", "name": "day", "in": "query", "required": true},
                    {"type": "string", "description": "CSV уровней: debug,info,warn,error", "name": "level", "in": "query"},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "query"},
                    {"type": "string", "description": "Поиск по подстроке", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Лимит (по умолч. 200, макс. 1000)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Сколько совпадений пропустить", "name": "cursor", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "bad day", "schema": {"$ref": "#/definitions/helpers.Response"}},
                    "404": {"description": "no logs", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        },
        "/api/admin/logs/summary": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Количество записей по уровням за последние N дней (по умолчанию 7).",
                "produces": ["application/json"],
                "tags": ["admin-logs"],
                "summary": "Сводка по уровням логов",
                "parameters": [
                    {"type": "integer", "description": "Количество дней", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/helpers.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.changeReq": {
            "type": "object",
            "required": ["new_password", "old_password"],
            "properties": {
                "new_password": {"type": "string"},
                "old_password": {"type": "string"}
            }
        },
        "handlers.forgotReq": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string", "maxLength": 254}
            }
        },
        "handlers.registerRequest": {
            "type": "object",
            "required": ["email", "password", "role"],
            "properties": {
                "department": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "faculty", "admin"]}
            }
        },
        "handlers.registerResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "token": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "handlers.loginRequest": {
            "type": "object",
            "required": ["email", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "faculty", "admin"]}
            }
        },
        "handlers.loginResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "role": {"type": "string"},
                "token": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "handlers.resetReq": {
            "type": "object",
            "required": ["new_password", "token"],
            "properties": {
                "new_password": {"type": "string"},
                "token": {"type": "string", "maxLength": 512}
            }
        },
        "handlers.usersPage": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/models.User"}}
            }
        },
        "handlers.validateRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "helpers.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"}
            }
        },
        "models.Identity": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "issued_at": {"type": "string"},
                "role": {"type": "string"},
                "subject_id": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "department": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "id": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "College Portal Auth API",
	Description:      "Регистрация, вход, проверка токенов, доступ по ролям и сброс пароля.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
