package actions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/resolution"
	"github.com/resto-agent/backend/internal/storage/sqlite"
)

// Irreversible action types must be confirmed by the user before they run.
var irreversible = map[string]bool{
	"delete_item":    true,
	"disable_item":   true,
	"clear_category": true,
}

// Outcome describes a completed action in past-tense phrasing the response
// service can render directly.
type Outcome struct {
	Phrase string
	Data   map[string]interface{}
}

// Executor applies validated action requests to the restaurant database.
type Executor struct {
	db     *sqlite.Client
	dryRun bool
	logger *zap.Logger
}

func NewExecutor(db *sqlite.Client, dryRun bool, logger *zap.Logger) *Executor {
	return &Executor{db: db, dryRun: dryRun, logger: logger}
}

// RequiresConfirmation reports whether the action type is irreversible and
// the consequence the user must see before it proceeds.
func (e *Executor) RequiresConfirmation(actionType string, params map[string]interface{}) (bool, string) {
	if !irreversible[actionType] {
		return false, ""
	}

	target, _ := params["item_name"].(string)
	if target == "" {
		target, _ = params["category_name"].(string)
	}

	switch actionType {
	case "delete_item":
		return true, fmt.Sprintf("permanently remove %q from the menu", target)
	case "disable_item":
		return true, fmt.Sprintf("make %q unavailable for ordering", target)
	case "clear_category":
		return true, fmt.Sprintf("remove every item in the %q category", target)
	default:
		return true, fmt.Sprintf("apply %s to %q", actionType, target)
	}
}

// Execute runs a confirmed action. Unknown types are a terminal action error
// for the turn.
func (e *Executor) Execute(ctx context.Context, actionType string, params map[string]interface{}) (*Outcome, error) {
	e.logger.Info("executing action",
		zap.String("action_type", actionType),
		zap.Bool("dry_run", e.dryRun))

	switch actionType {
	case "update_price":
		return e.updatePrice(ctx, params)
	case "disable_item":
		return e.setItemActive(ctx, params, false)
	case "enable_item":
		return e.setItemActive(ctx, params, true)
	default:
		return nil, apperrors.Typedf(apperrors.TypeAction, "unsupported action type %q", actionType)
	}
}

func (e *Executor) updatePrice(ctx context.Context, params map[string]interface{}) (*Outcome, error) {
	itemName, _ := params["item_name"].(string)
	newPrice, ok := numericParam(params["new_price"])
	if !ok || itemName == "" {
		return nil, apperrors.Typedf(apperrors.TypeAction, "update_price requires item_name and new_price")
	}
	if newPrice < 0 {
		return nil, apperrors.Typedf(apperrors.TypeValidation, "new_price must be non-negative")
	}
	itemName = e.resolveItemName(ctx, itemName)

	data := map[string]interface{}{
		"item_name": itemName,
		"new_price": newPrice,
	}

	if !e.dryRun {
		item, err := e.db.GetMenuItemByName(ctx, itemName)
		if err != nil {
			return nil, apperrors.Typed(apperrors.TypeDatabaseQuery, err)
		}
		if item != nil {
			data["previous_price"] = item.Price
		}

		result, err := e.db.DB().ExecContext(ctx,
			`UPDATE menu_items SET price = ? WHERE name = ? AND active = 1`, newPrice, itemName)
		if err != nil {
			return nil, apperrors.Typed(apperrors.TypeDatabaseQuery, err)
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return nil, apperrors.Typedf(apperrors.TypeNotFound, "no active item named %q", itemName)
		}
	}

	return &Outcome{
		Phrase: fmt.Sprintf("updated the price of %s to $%.2f", itemName, newPrice),
		Data:   data,
	}, nil
}

func (e *Executor) setItemActive(ctx context.Context, params map[string]interface{}, active bool) (*Outcome, error) {
	itemName, _ := params["item_name"].(string)
	if itemName == "" {
		return nil, apperrors.Typedf(apperrors.TypeAction, "item_name is required")
	}

	verb := "disabled"
	if active {
		verb = "re-enabled"
	} else {
		// Only disable targets live on the active menu, so only they can be
		// corrected against it.
		itemName = e.resolveItemName(ctx, itemName)
	}

	if !e.dryRun {
		value := 0
		if active {
			value = 1
		}
		result, err := e.db.DB().ExecContext(ctx,
			`UPDATE menu_items SET active = ? WHERE name = ?`, value, itemName)
		if err != nil {
			return nil, apperrors.Typed(apperrors.TypeDatabaseQuery, err)
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return nil, apperrors.Typedf(apperrors.TypeNotFound, "no item named %q", itemName)
		}
	}

	return &Outcome{
		Phrase: fmt.Sprintf("%s %s", verb, itemName),
		Data: map[string]interface{}{
			"item_name": itemName,
			"active":    active,
		},
	}, nil
}

// resolveItemName corrects near-miss spellings ("Cheesburger") against the
// active menu before the statement runs. Best effort: on lookup failure the
// given name passes through unchanged and the UPDATE decides.
func (e *Executor) resolveItemName(ctx context.Context, name string) string {
	if e.dryRun || e.db == nil || name == "" {
		return name
	}

	names, err := e.db.GetMenuItemNames(ctx)
	if err != nil {
		e.logger.Warn("menu name lookup failed", zap.Error(err))
		return name
	}
	for _, n := range names {
		if n == name {
			return name
		}
	}

	match, ratio := resolution.FuzzyMatch(name, names, resolution.DefaultFuzzyThreshold)
	if match == "" {
		return name
	}

	e.logger.Info("fuzzy-matched item name",
		zap.String("given", name),
		zap.String("matched", match),
		zap.Float64("ratio", ratio))
	return match
}

func numericParam(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
