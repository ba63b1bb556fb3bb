package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeUnknown           = "UNKNOWN"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeUserEmptyName     = "USER_EMPTY_NAME"
	CodeUserInvalidID     = "USER_INVALID_ID"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeSessionExpired    = "SESSION_EXPIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeUserAlreadyExists = "USER_ALREADY_EXISTS"

	// KeyFieldRequired renders a missing request field.
	KeyFieldRequired = "FIELD_REQUIRED"
	// KeyInvalidPageToken renders a malformed page token.
	KeyInvalidPageToken = "INVALID_PAGE_TOKEN"
)

var enUS = map[Code]string{
	CodeUnknown:           "unexpected error",
	CodeInvalidArgument:   "request is invalid",
	CodeUserEmptyName:     "user name is required",
	CodeUserInvalidID:     "user id is required",
	CodeUnauthenticated:   "authentication required",
	CodeSessionExpired:    "session expired",
	CodeForbidden:         "access denied",
	CodeNotFound:          "user {{.id}} not found",
	CodeUserAlreadyExists: "user {{.name}} already exists",
	KeyFieldRequired:      "{{.field}} is required",
	KeyInvalidPageToken:   "page token {{.token}} is invalid",
}

var ptBR = map[Code]string{
	CodeUnknown:           "erro inesperado",
	CodeInvalidArgument:   "requisição inválida",
	CodeUserEmptyName:     "o nome do usuário é obrigatório",
	CodeUserInvalidID:     "o id do usuário é obrigatório",
	CodeUnauthenticated:   "autenticação necessária",
	CodeSessionExpired:    "sessão expirada",
	CodeForbidden:         "acesso negado",
	CodeNotFound:          "usuário {{.id}} não encontrado",
	CodeUserAlreadyExists: "usuário {{.name}} já existe",
	KeyFieldRequired:      "{{.field}} é obrigatório",
	KeyInvalidPageToken:   "token de página {{.token}} inválido",
}
