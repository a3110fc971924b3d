package comanda

import (
	"context"

	"github.com/google/uuid"
)

func ValidateTableCreate(ctx context.Context, req TableCreateRequest) []string {
	var errors []string

	if req.Number < 1 {
		errors = append(errors, "number must be a positive integer")
	}

	if req.Seats < 0 {
		errors = append(errors, "seats cannot be negative")
	}

	return errors
}

func ValidateOrderCreate(ctx context.Context, req OrderCreateRequest) []string {
	var errors []string

	hasTable := req.TableID != nil && *req.TableID != uuid.Nil
	if hasTable && req.Takeaway {
		errors = append(errors, "order cannot be both dine-in and takeaway")
	}
	if !hasTable && !req.Takeaway {
		errors = append(errors, "table_id or takeaway is required")
	}

	if len(req.Lines) == 0 {
		errors = append(errors, "at least one line is required")
	}

	for _, line := range req.Lines {
		if line.MenuItemID == uuid.Nil {
			errors = append(errors, "menu_item_id is required on every line")
			break
		}
	}

	for _, line := range req.Lines {
		if line.Quantity < 1 {
			errors = append(errors, "quantity must be greater than 0")
			break
		}
	}

	if req.Tax != nil && req.Tax.IsNegative() {
		errors = append(errors, "tax cannot be negative")
	}

	if req.Discount != nil && req.Discount.IsNegative() {
		errors = append(errors, "discount cannot be negative")
	}

	return errors
}
