package validate

import (
	"strconv"
	"strings"

	"markc/internal/binding"
	"markc/internal/diag"
)

func (v *validator) checkPhase(p *binding.Phase) {
	scope := v.res.Universe.Scope(p.Scope)
	if scope == nil || scope.Kind != binding.ScopeTemplate {
		v.errorf(diag.ValPhaseOutsideTemplate, p.Attr.Span(), "x:Phase is only allowed inside a data template").Emit()
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Attr.Value)); err != nil || n < 0 {
		v.errorf(diag.ValPhaseInvalid, p.Attr.ValueSpan(), "x:Phase must be a non-negative integer").Emit()
	}
}
