package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := New(Options{Interval: time.Millisecond, IdleBackoff: time.Millisecond}, zerolog.Nop())

	ticks := 0
	err := sched.Run(ctx, func(ctx context.Context) (bool, error) {
		ticks++
		if ticks >= 3 {
			cancel()
		}
		return false, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("取消后应返回 context.Canceled, 实际 %v", err)
	}
	if ticks != 3 {
		t.Fatalf("期望 3 次轮询, 实际 %d", ticks)
	}
}

func TestRunUsesIdleBackoffWhenIdle(t *testing.T) {
	// The poll interval is far too long for this test to finish unless the
	// idle backoff is the delay actually used.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sched := New(Options{Interval: time.Hour, IdleBackoff: time.Millisecond}, zerolog.Nop())

	ticks := 0
	err := sched.Run(ctx, func(ctx context.Context) (bool, error) {
		ticks++
		if ticks >= 2 {
			cancel()
		}
		return true, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("未预期的错误: %v", err)
	}
	if ticks < 2 {
		t.Fatalf("空闲状态应以短退避继续轮询, 实际 %d 次", ticks)
	}
}

func TestRunUsesIntervalWhenActive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sched := New(Options{Interval: time.Millisecond, IdleBackoff: time.Hour}, zerolog.Nop())

	ticks := 0
	err := sched.Run(ctx, func(ctx context.Context) (bool, error) {
		ticks++
		if ticks >= 2 {
			cancel()
		}
		return false, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("未预期的错误: %v", err)
	}
	if ticks < 2 {
		t.Fatalf("活跃状态应以配置间隔继续轮询, 实际 %d 次", ticks)
	}
}

func TestRunSwallowsTickErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := New(Options{Interval: time.Millisecond, IdleBackoff: time.Millisecond}, zerolog.Nop())

	ticks := 0
	err := sched.Run(ctx, func(ctx context.Context) (bool, error) {
		ticks++
		if ticks >= 2 {
			cancel()
			return false, nil
		}
		return false, errors.New("transient cycle failure")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("瞬时错误不应终止循环: %v", err)
	}
	if ticks != 2 {
		t.Fatalf("出错后应继续轮询, 实际 %d 次", ticks)
	}
}

func TestRunPropagatesContextErrorFromTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := New(Options{Interval: time.Millisecond, IdleBackoff: time.Millisecond}, zerolog.Nop())

	err := sched.Run(ctx, func(ctx context.Context) (bool, error) {
		cancel()
		return false, context.Canceled
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("tick 返回取消错误时应立即退出: %v", err)
	}
}

func TestNewPanicsOnInvalidInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("非法间隔应 panic")
		}
	}()
	New(Options{Interval: 0}, zerolog.Nop())
}
