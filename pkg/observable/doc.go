// Package observable provides Cell, a single-value container that notifies
// subscribers when its value changes.
//
// A Cell replays its current value to every new subscriber, so presentation
// code can subscribe once and render immediately without a separate Get.
// Change detection uses an equality function that is injected at
// construction time; values that compare equal to the current one are
// ignored.
package observable
