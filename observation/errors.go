package observation

import "errors"

var (
	errOddWindow      = errors.New("observation: obs_height and obs_width must both be odd")
	errWindowTooLarge = errors.New("observation: obs_height and obs_width must each be <= 15 to fit the packed coordinate")
)
