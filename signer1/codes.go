package signer1

import "fmt"

// ResCode is the closed result enumeration returned by the Signer1
// authority. It is the sole success/failure signal across the remote
// boundary; expected failures never cross it as errors.
type ResCode int

const (
	Success      ResCode = 0
	GeneralError ResCode = 1
	InputError   ResCode = 2

	// Authority-specific codes.
	CertNotFound ResCode = 10
	PinIncorrect ResCode = 11
	TokenExpired ResCode = 12
)

func (c ResCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case GeneralError:
		return "GENERAL_ERROR"
	case InputError:
		return "INPUT_ERROR"
	case CertNotFound:
		return "CERT_NOT_FOUND"
	case PinIncorrect:
		return "PIN_INCORRECT"
	case TokenExpired:
		return "TOKEN_EXPIRED"
	default:
		return fmt.Sprintf("RES_CODE_%d", int(c))
	}
}
