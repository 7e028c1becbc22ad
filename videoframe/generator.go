package videoframe

import (
	"image"

	"gocv.io/x/gocv"
)

// FrameBatchAlgo is a GeneratorAlgo[Fragment]: it reads frames from a
// VideoSource, optionally crops/greyscales each one, optionally tiles it
// into fixed chunks, and emits one batch of FramesInBatch*Cols*Rows
// fragments per GetBatch call.
type FrameBatchAlgo struct {
	cfg FrameBatchConfig

	src  VideoSource
	read int
	done bool
	grid TileGrid
}

// FrameBatchConfig configures a FrameBatchAlgo.
type FrameBatchConfig struct {
	// StartFrame is the 0-indexed frame to begin reading from.
	StartFrame int
	// LastFrame is the exclusive upper bound on frames read. For a live
	// source this is interpreted as a frame-count cap rather than EOF.
	LastFrame int
	// FramesInBatch is the number of distinct source frames per batch.
	FramesInBatch int
	// Cols, Rows tile each frame into Cols*Rows chunks (1,1 means no tiling).
	Cols, Rows int
	// HBuf, VBuf are per-tile pixel buffers for overlapping reassembly.
	HBuf, VBuf int
	// CropRect, if non-empty, is applied to every decoded frame before
	// tiling.
	CropRect image.Rectangle
	// ConvertToGrayscale converts colour frames to single-channel.
	ConvertToGrayscale bool
	// SourceIsGrayscale is a fast path for grayscale sources: the first
	// channel of each decoded frame is kept as-is, with no colour conversion.
	SourceIsGrayscale bool
	// Live marks src as a live (non-rewindable) source; a zero-frame read
	// does not trigger a rewind-and-retry.
	Live bool
}

// NewFrameBatchAlgo constructs a FrameBatchAlgo reading from src. If
// cfg.StartFrame > 0 and src is not Live, it seeks before the first read.
func NewFrameBatchAlgo(src VideoSource, cfg FrameBatchConfig) (*FrameBatchAlgo, error) {
	if cfg.Cols == 0 {
		cfg.Cols = 1
	}
	if cfg.Rows == 0 {
		cfg.Rows = 1
	}

	if cfg.StartFrame > 0 && !cfg.Live {
		if err := src.Seek(cfg.StartFrame); err != nil {
			return nil, err
		}
	}

	w, h := src.Resolution()
	if !cfg.CropRect.Empty() {
		w, h = cfg.CropRect.Dx(), cfg.CropRect.Dy()
	}

	return &FrameBatchAlgo{
		cfg:  cfg,
		src:  src,
		read: cfg.StartFrame,
		grid: TileGrid{Width: w, Height: h, Cols: cfg.Cols, Rows: cfg.Rows, HBuf: cfg.HBuf, VBuf: cfg.VBuf},
	}, nil
}

// GetBatch reads up to FramesInBatch frames, transforms and tiles each, and
// returns their fragments concatenated in frame-then-column-major order. It
// returns an empty slice once LastFrame is reached or the source is
// exhausted; for a non-live source reaching zero-frames-read, the source is
// rewound to StartFrame so a subsequent run can reuse it.
func (a *FrameBatchAlgo) GetBatch() []Fragment {
	if a.done {
		return nil
	}

	var batch []Fragment
	framesRead := 0

	for framesRead < a.cfg.FramesInBatch {
		if a.cfg.LastFrame > 0 && a.read >= a.cfg.LastFrame {
			break
		}

		frame, ok := a.src.Read()
		if !ok {
			a.done = true
			break
		}

		transformed := a.transform(frame)
		batch = append(batch, Tile(transformed, a.grid)...)
		transformed.Mat.Close()

		a.read++
		framesRead++
	}

	if framesRead == 0 {
		a.done = true
		if !a.cfg.Live {
			a.src.Seek(a.cfg.StartFrame)
			a.read = a.cfg.StartFrame
		}
		return nil
	}

	return batch
}

// transform applies CropRect and grayscale conversion, closing the input Mat
// and returning a new owned Frame.
func (a *FrameBatchAlgo) transform(f Frame) Frame {
	mat := cropToRect(f.Mat, a.cfg.CropRect)
	f.Mat.Close()

	if a.cfg.SourceIsGrayscale {
		if mat.Channels() > 1 {
			channels := gocv.Split(mat)
			mat.Close()
			mat = channels[0]
			for _, c := range channels[1:] {
				c.Close()
			}
		}
		f.Mat = mat
		return f
	}
	if a.cfg.ConvertToGrayscale && mat.Channels() > 1 {
		gray := gocv.NewMat()
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		mat.Close()
		f.Mat = gray
		return f
	}

	f.Mat = mat
	return f
}
