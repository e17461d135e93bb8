package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly    ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorAccessOnly ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrNotEnrolled          ErrCode = "NOT_ENROLLED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Assignment window ─────────────────────────────────────────────
	ErrAssignmentNotStarted     ErrCode = "ASSIGNMENT_NOT_STARTED"
	ErrAssignmentDeadlinePassed ErrCode = "ASSIGNMENT_DEADLINE_PASSED"
	ErrAssignmentEnded          ErrCode = "ASSIGNMENT_ENDED"
	ErrAssignmentNotAvailable   ErrCode = "ASSIGNMENT_NOT_AVAILABLE"
	ErrAssignmentNotDraft       ErrCode = "ASSIGNMENT_NOT_DRAFT"

	// ─── Assignment session ────────────────────────────────────────────
	ErrSessionSubmitted       ErrCode = "SESSION_SUBMITTED"
	ErrSessionExpired         ErrCode = "SESSION_EXPIRED"
	ErrSessionNotFound        ErrCode = "SESSION_NOT_FOUND"
	ErrConcurrentModification ErrCode = "CONCURRENT_MODIFICATION"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email/NISN atau kata sandi salah."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrInstructorAccessOnly:
		return "Sumber daya ini terbatas untuk pengajar."
	case ErrNotEnrolled:
		return "Anda tidak terdaftar pada kursus ini."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."
	case ErrDependencyExists:
		return "Data tidak dapat dihapus karena masih digunakan oleh data lain."
	case ErrActionForbidden:
		return "Tindakan ini tidak diperbolehkan."

	// ─── Assignment window ─────────────────────────────────────────────
	case ErrAssignmentNotStarted:
		return "Tugas ini belum dimulai."
	case ErrAssignmentDeadlinePassed:
		return "Tenggat waktu tugas ini telah berlalu."
	case ErrAssignmentEnded:
		return "Tugas ini telah berakhir."
	case ErrAssignmentNotAvailable:
		return "Tugas ini saat ini tidak tersedia."
	case ErrAssignmentNotDraft:
		return "Tugas ini tidak dalam status DRAFT."

	// ─── Assignment session ────────────────────────────────────────────
	case ErrSessionSubmitted:
		return "Sesi pengerjaan sudah dikumpulkan."
	case ErrSessionExpired:
		return "Waktu pengerjaan Anda telah habis."
	case ErrSessionNotFound:
		return "Sesi pengerjaan tidak ditemukan."
	case ErrConcurrentModification:
		return "Permintaan bentrok dengan permintaan lain. Silakan coba lagi."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "Unggah file diperlukan."
	case ErrUnsupportedFile:
		return "Jenis file tidak didukung."
	case ErrFileTooLarge:
		return "Ukuran file melebihi batas."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
