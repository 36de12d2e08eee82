// Package engine implements the voxel engine the daemon drives: the sparse
// voxel volume, the project and layer model, the native gox file codec, the
// per-format exporter registry, and a software offscreen rasterizer.
//
// All operations are synchronous and single-threaded. The engine performs no
// locking of its own; callers serialize access (the daemon does so through
// its project lock).
//
// Example usage:
//
//	p := engine.NewProject("castle", 64, 64, 64)
//	if err := p.SetVoxel(8, 8, 8, engine.Color{255, 0, 0, 255}); err != nil {
//	    return err
//	}
//
//	if err := engine.SaveGox("castle.gox", p); err != nil {
//	    return err
//	}
//
//	if err := engine.Export("castle.obj", "", p); err != nil {
//	    return err
//	}
package engine
