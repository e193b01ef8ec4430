package vulkan

import (
	"fmt"

	"vkcad/internal/graphics/renderer"
)

type swapchainState int

const (
	stateUninitialized swapchainState = iota
	stateReady
	stateRecreating
	stateDestroyed
)

func (s swapchainState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateRecreating:
		return "recreating"
	case stateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("swapchainState(%d)", int(s))
}

// swapchainResources is the GPU side of the lifecycle. Core implements it;
// tests use a counting fake.
type swapchainResources interface {
	// surfaceExtent is the extent a swapchain built now would get. It is
	// zero while the window is minimized.
	surfaceExtent(requested renderer.Extent) (renderer.Extent, error)
	// waitIdle blocks until the device has finished all submitted work.
	waitIdle()
	// destroySwapchainResources releases everything sized to the swapchain,
	// in reverse creation order.
	destroySwapchainResources()
	// buildSwapchainResources creates the swapchain and everything sized to
	// it. It returns the extent actually chosen.
	buildSwapchainResources(extent renderer.Extent) (renderer.Extent, error)
	// rebindDependents refreshes pipelines and targets that depend on the
	// render passes or the extent.
	rebindDependents(extent renderer.Extent) error
}

// lifecycle tracks the swapchain state machine.
type lifecycle struct {
	state  swapchainState
	extent renderer.Extent
	// generation increments on every successful build.
	generation int
}

func (l *lifecycle) ready() bool { return l.state == stateReady }

// create performs the first build.
func (l *lifecycle) create(r swapchainResources, extent renderer.Extent) error {
	if l.state != stateUninitialized {
		return renderer.Initialization("swapchain already created (state %s)", l.state)
	}
	if extent.Zero() {
		return renderer.ErrSurfaceTooSmall
	}
	return l.build(r, extent)
}

// recreate tears down and rebuilds at extent. A zero extent is skipped and
// leaves the current resources in place. A surface that currently has no
// area returns renderer.ErrSurfaceTooSmall, also without touching anything.
func (l *lifecycle) recreate(r swapchainResources, extent renderer.Extent) error {
	switch l.state {
	case stateDestroyed:
		return renderer.ErrNotReady
	case stateUninitialized:
		// A failed rebuild leaves nothing to tear down; retry from scratch.
		if l.generation == 0 {
			return renderer.ErrNotReady
		}
		if extent.Zero() {
			return nil
		}
		if err := surfaceUsable(r, extent); err != nil {
			return err
		}
		return l.build(r, extent)
	}
	if extent.Zero() {
		return nil
	}
	if err := surfaceUsable(r, extent); err != nil {
		return err
	}
	l.state = stateRecreating
	r.waitIdle()
	r.destroySwapchainResources()
	return l.build(r, extent)
}

func surfaceUsable(r swapchainResources, extent renderer.Extent) error {
	got, err := r.surfaceExtent(extent)
	if err != nil {
		return err
	}
	if got.Zero() {
		return renderer.ErrSurfaceTooSmall
	}
	return nil
}

func (l *lifecycle) build(r swapchainResources, extent renderer.Extent) error {
	l.state = stateRecreating
	got, err := r.buildSwapchainResources(extent)
	if err != nil {
		// Whatever was partially built has been released by the builder.
		l.state = stateUninitialized
		return err
	}
	if err := r.rebindDependents(got); err != nil {
		r.destroySwapchainResources()
		l.state = stateUninitialized
		return err
	}
	l.extent = got
	l.generation++
	l.state = stateReady
	return nil
}

// destroy releases the swapchain resources. Later calls are no-ops.
func (l *lifecycle) destroy(r swapchainResources) {
	if l.state == stateDestroyed {
		return
	}
	if l.state != stateUninitialized {
		r.waitIdle()
		r.destroySwapchainResources()
	}
	l.state = stateDestroyed
}
