// internal/app/features/levels/types.go
package levels

import (
	"encoding/json"
	"strings"

	"github.com/dalemusser/uplinehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/uplinehub/internal/app/system/normalize"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
)

type conditionRequest struct {
	Type  string      `json:"type" validate:"required,oneof=BUSINESS LEVELS" label:"Condition type"`
	Scope string      `json:"scope" validate:"required,oneof=DIRECT NETWORK" label:"Condition scope"`
	Value json.Number `json:"value" validate:"required,decimal" label:"Condition value"`
	Level *int        `json:"level,omitempty" validate:"omitempty,min=1" label:"Condition level"`
}

type createRequest struct {
	Name                    string             `json:"name" validate:"required,max=100" label:"Level name"`
	Description             string             `json:"description" validate:"max=2000" label:"Description"`
	Hierarchy               int                `json:"hierarchy" validate:"required,min=1" label:"Hierarchy"`
	AppraisalBonus          json.Number        `json:"appraisal_bonus" validate:"omitempty,decimal" label:"Appraisal bonus"`
	PassiveIncomePercentage json.Number        `json:"passive_income_percentage" validate:"required,decimal" label:"Passive income percentage"`
	Conditions              []conditionRequest `json:"conditions" validate:"max=20,dive" label:"Conditions"`
}

// clean normalizes free text before validation. Names lose any markup;
// descriptions keep the safe subset.
func (req *createRequest) clean() {
	req.Name = htmlsanitize.StripTags(normalize.Name(req.Name))
	req.Description = strings.TrimSpace(htmlsanitize.Sanitize(req.Description))
	for i := range req.Conditions {
		req.Conditions[i].Type = normalize.ConditionType(req.Conditions[i].Type)
		req.Conditions[i].Scope = normalize.Scope(req.Conditions[i].Scope)
	}
}

// level converts a validated request. Numeric fields were checked by the
// decimal rule, so parsing cannot fail.
func (req createRequest) level() models.Level {
	l := models.Level{
		Name:                    req.Name,
		Description:             req.Description,
		Hierarchy:               req.Hierarchy,
		AppraisalBonus:          parse(req.AppraisalBonus),
		PassiveIncomePercentage: parse(req.PassiveIncomePercentage),
		Conditions:              make([]models.Condition, 0, len(req.Conditions)),
	}
	for _, c := range req.Conditions {
		l.Conditions = append(l.Conditions, models.Condition{
			Type:  models.ConditionType(c.Type),
			Scope: models.ConditionScope(c.Scope),
			Value: parse(c.Value),
			Level: c.Level,
		})
	}
	return l
}

func parse(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(n.String()))
	if err != nil {
		return decimal.Zero
	}
	return d
}

type listResponse struct {
	Levels []models.Level `json:"levels"`
}
