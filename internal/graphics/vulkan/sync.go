package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// framesInFlight is how many frames the CPU may record ahead of the GPU.
const framesInFlight = 2

// frameSlots is the round-robin bookkeeping of frames in flight: which slot
// records next, and which slot last rendered into each swapchain image.
type frameSlots struct {
	current int
	owners  []int // per swapchain image, -1 when unused
}

func newFrameSlots(images int) *frameSlots {
	s := &frameSlots{}
	s.resize(images)
	return s
}

// resize forgets all image ownership; called whenever the swapchain is rebuilt.
func (s *frameSlots) resize(images int) {
	s.owners = make([]int, images)
	for i := range s.owners {
		s.owners[i] = -1
	}
}

// claim assigns image to the current slot. It returns the slot whose fence
// must be waited on first, if the image is still owned by a frame.
func (s *frameSlots) claim(image int) (prev int, wait bool) {
	prev = s.owners[image]
	s.owners[image] = s.current
	return prev, prev >= 0
}

func (s *frameSlots) advance() {
	s.current = (s.current + 1) % framesInFlight
}

// pending returns the distinct slots that currently own an image.
func (s *frameSlots) pending() []int {
	var seen [framesInFlight]bool
	var out []int
	for _, o := range s.owners {
		if o >= 0 && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// frameSync holds one semaphore pair and fence per slot.
type frameSync struct {
	imageAvailable [framesInFlight]vk.Semaphore
	renderFinished [framesInFlight]vk.Semaphore
	inFlight       [framesInFlight]vk.Fence
}

func (c *gpuContext) createFrameSync() (*frameSync, error) {
	s := &frameSync{}
	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	for i := 0; i < framesInFlight; i++ {
		if err := vkErr(vk.CreateSemaphore(c.device, &semInfo, nil, &s.imageAvailable[i]), "create image semaphore"); err != nil {
			c.destroyFrameSync(s)
			return nil, err
		}
		if err := vkErr(vk.CreateSemaphore(c.device, &semInfo, nil, &s.renderFinished[i]), "create render semaphore"); err != nil {
			c.destroyFrameSync(s)
			return nil, err
		}
		if err := vkErr(vk.CreateFence(c.device, &fenceInfo, nil, &s.inFlight[i]), "create frame fence"); err != nil {
			c.destroyFrameSync(s)
			return nil, err
		}
	}
	return s, nil
}

func (c *gpuContext) destroyFrameSync(s *frameSync) {
	if s == nil {
		return
	}
	for i := 0; i < framesInFlight; i++ {
		if s.imageAvailable[i] != vk.NullSemaphore {
			vk.DestroySemaphore(c.device, s.imageAvailable[i], nil)
		}
		if s.renderFinished[i] != vk.NullSemaphore {
			vk.DestroySemaphore(c.device, s.renderFinished[i], nil)
		}
		if s.inFlight[i] != vk.NullFence {
			vk.DestroyFence(c.device, s.inFlight[i], nil)
		}
	}
}

// acquireRelease is a submit with no command buffers that only waits on sem.
// It returns an acquire semaphore to the unsignalled state when a frame is
// abandoned between acquire and submit.
func acquireRelease(sem vk.Semaphore) vk.SubmitInfo {
	return vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{sem},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		},
	}
}

func (c *gpuContext) waitFence(f vk.Fence) error {
	return vkErr(vk.WaitForFences(c.device, 1, []vk.Fence{f}, vk.True, ^uint64(0)), "wait for frame fence")
}
