package calculator

import (
	"errors"

	"github.com/nconklindev/profitcalc/internal/types"
	"github.com/nconklindev/profitcalc/internal/workbook"
)

// UserMessage turns a run error into the text shown to the user. Details
// beyond this stay in the log.
func UserMessage(err error) string {
	var verr *types.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "All fields must be filled out before proceeding."
	case errors.Is(err, workbook.ErrNoSheets), errors.Is(err, workbook.ErrLoad):
		return "Failed to load one or both Excel files. Please check the files and try again."
	case errors.Is(err, workbook.ErrSave):
		return "Failed to save the workbook. Check if the file is open or locked."
	default:
		return "An error occurred during the calculation and update process. Check the log file for details."
	}
}
