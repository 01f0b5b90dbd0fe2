package fx

import (
	"github.com/frankramblings/socialfusion/internal/repositories/capabilities"
	"github.com/frankramblings/socialfusion/internal/repositories/savedsearch"
	"go.uber.org/fx"
)

var Module = fx.Options(
	capabilities.Module,
	savedsearch.Module,
)
