// Package autoload registers all built-in channel factories.
// Blank-import this package to make them available to channels.LoadFromConfig.
package autoload

import (
	_ "lectern/pkg/channels/telegram"
	_ "lectern/pkg/channels/web"
)
