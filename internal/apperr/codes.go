package apperr

import (
	"net/http"
	"strings"
)

// Code is a machine-readable error code. Every code has a message template in
// the message bundle under the same key.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Archetype and node errors
	CodeArchetypeNotFound   Code = "ARCHETYPE_NOT_FOUND"
	CodeInvalidArchetypeID  Code = "ARCHETYPE_INVALID_ID"
	CodeNodeNotFound        Code = "NODE_NOT_FOUND"
	CodeNodeReadOnly        Code = "NODE_READ_ONLY"
	CodeNodeInvalidValue    Code = "NODE_INVALID_VALUE"
	CodeNodeNotCollection   Code = "NODE_NOT_COLLECTION"
	CodeRelationshipInvalid Code = "RELATIONSHIP_INVALID"
	CodeValidationFailed    Code = "VALIDATION_FAILED"

	// Reference errors
	CodeReferenceInvalid  Code = "REFERENCE_INVALID"
	CodeReferenceNotFound Code = "REFERENCE_NOT_FOUND"
	CodeNoResolver        Code = "REFERENCE_NO_RESOLVER"

	// Practice errors
	CodePracticeNotFound         Code = "PRACTICE_NOT_FOUND"
	CodePracticeNameEmpty        Code = "PRACTICE_NAME_EMPTY"
	CodePracticeLocationNotFound Code = "PRACTICE_LOCATION_NOT_FOUND"
	CodePracticeMismatch         Code = "PRACTICE_MISMATCH"

	// Entity type errors
	CodeEntityTypeDuplicate Code = "ENTITY_TYPE_DUPLICATE"
	CodeEntityTypeInUse     Code = "ENTITY_TYPE_IN_USE"

	// Editor errors
	CodeEditorStaleVersion Code = "EDITOR_STALE_VERSION"
	CodeEditorInvalidBody  Code = "EDITOR_INVALID_BODY"

	// Mail errors
	CodeMailInvalid    Code = "MAIL_INVALID"
	CodeMailSendFailed Code = "MAIL_SEND_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
)

// HTTPStatus maps a code to the response status used by the API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArchetypeID,
		CodeNodeReadOnly,
		CodeNodeInvalidValue,
		CodeNodeNotCollection,
		CodeRelationshipInvalid,
		CodeValidationFailed,
		CodeReferenceInvalid,
		CodePracticeNameEmpty,
		CodeEditorInvalidBody,
		CodeMailInvalid:
		return http.StatusBadRequest

	case CodeArchetypeNotFound,
		CodeReferenceNotFound,
		CodePracticeNotFound,
		CodePracticeLocationNotFound,
		CodeNotFound:
		return http.StatusNotFound

	case CodePracticeMismatch:
		return http.StatusForbidden

	case CodeEntityTypeDuplicate,
		CodeEntityTypeInUse,
		CodeEditorStaleVersion,
		CodeConflict:
		return http.StatusConflict

	case CodeMailSendFailed:
		return http.StatusBadGateway

	// Unknown nodes and missing resolvers are configuration errors.
	case CodeNodeNotFound, CodeNoResolver:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

// Area groups codes by the business area that raises them.
func (c Code) Area() string {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "ARCHETYPE_"), strings.HasPrefix(s, "NODE_"),
		strings.HasPrefix(s, "RELATIONSHIP_"), s == string(CodeValidationFailed):
		return "archetype"
	case strings.HasPrefix(s, "REFERENCE_"):
		return "reference"
	case strings.HasPrefix(s, "PRACTICE_"):
		return "practice"
	case strings.HasPrefix(s, "ENTITY_TYPE_"):
		return "entity_type"
	case strings.HasPrefix(s, "EDITOR_"):
		return "editor"
	case strings.HasPrefix(s, "MAIL_"):
		return "mail"
	case c == CodeNotFound, c == CodeConflict:
		return "storage"
	default:
		return "core"
	}
}
