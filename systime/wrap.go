package systime

import "unsafe"

// The tick counters wrap, so two samples cannot be differenced with a
// plain subtraction once a rollover sits between them. Diff and SDiff
// compute the elapsed count across at most one wraparound. Letting
// more than one full wrap elapse between the samples silently yields
// a meaningless value — that bound is the caller's contract, it is
// not detected here.

type unsignedTick interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type signedTick interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Diff returns the number of counts elapsed between two samples of a
// wrapping unsigned counter, where newer was sampled chronologically
// after older. The result is always non-negative: when newer < older
// the counter is taken to have wrapped exactly once.
func Diff[T unsignedTick](newer, older T) T {
	if newer >= older {
		return newer - older
	}
	return maxUnsigned[T]() - older + newer + 1
}

// SDiff is the signed counterpart of Diff, using the full range width
// of the type (max-min) as the wrap modulus. The result is the true
// elapsed count as long as it fits in the type's non-negative range;
// elapsed spans larger than the type's maximum are not representable.
func SDiff[T signedTick](newer, older T) T {
	if newer >= older {
		return newer - older
	}
	return maxSigned[T]() - minSigned[T]() - older + newer + 1
}

func maxUnsigned[T unsignedTick]() T {
	var zero T
	return ^zero
}

func minSigned[T signedTick]() T {
	var zero T
	return T(-1) << (8*unsafe.Sizeof(zero) - 1)
}

func maxSigned[T signedTick]() T {
	return ^minSigned[T]()
}
