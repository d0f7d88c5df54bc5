package finance

import (
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return mathutil.MustParse(value)
}
