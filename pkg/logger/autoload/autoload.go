// Package autoload initializes the global logger from LOG_* settings
// as a side effect of being imported:
//
//	import _ "github.com/thanawat-k/leadqual/pkg/logger/autoload"
package autoload

import (
	configx "github.com/thanawat-k/leadqual/pkg/config"
	logx "github.com/thanawat-k/leadqual/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
