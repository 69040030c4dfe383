// Package ratelimit implements sliding-window admission control per
// route key. The window counts request attempts inside the trailing
// window duration; there is no burst allowance beyond the window size.
package ratelimit
