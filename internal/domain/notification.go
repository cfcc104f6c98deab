package domain

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a transient message shown to the reporter once.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
}

// Notification kinds.
const (
	KindAddressFound   = "address_found"
	KindLookupNotFound = "lookup_not_found"
	KindLookupFailed   = "lookup_failed"
	KindValidation     = "validation"
	KindSubmitFailed   = "submit_failed"
	KindFilesAttached  = "files_attached"
	KindMarkerReadOnly = "marker_read_only"
)

// User-facing messages.
const (
	MsgAddressFound   = "Endereço encontrado!"
	MsgLookupNotFound = "CEP não encontrado"
	MsgLookupFailed   = "Erro ao buscar CEP"
	MsgSubmitted      = "Ocorrência registrada com sucesso!"
	MsgSubmitFailed   = "Erro ao registrar ocorrência. Tente novamente."
	MsgMarkerReadOnly = "A localização só pode ser ajustada no passo 1"
)
