package align

import (
	"math"
	"sync"

	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/scoring"
)

// dpWorkspace holds the three affine-gap DP planes (match, gap-in-read,
// gap-in-ref) plus their traceback pointers, preallocated to
// (2*maxRefLen)x(2*maxRefLen) and reused across calls -- spec §9's
// hot-path mandate that repeated alignment against a known maximum
// reference length never reallocates the DP buffer.
type dpWorkspace struct {
	dim int // current square dimension of the allocated planes

	m, ix, iy         []float64
	tbM, tbIx, tbIy   []byte
}

const (
	tbNone byte = iota
	tbDiagFromM
	tbDiagFromIx
	tbDiagFromIy
	tbVertOpen   // Ix: opened from M (consumes a reference base only)
	tbVertExtend // Ix: extended from Ix
	tbHorizOpen  // Iy: opened from M (consumes a read base only)
	tbHorizExtend
)

func newDPWorkspace(dim int) *dpWorkspace {
	n := (dim + 1) * (dim + 1)
	return &dpWorkspace{
		dim: dim,
		m:   make([]float64, n),
		ix:  make([]float64, n),
		iy:  make([]float64, n),
		tbM: make([]byte, n),
		tbIx: make([]byte, n),
		tbIy: make([]byte, n),
	}
}

// ensure grows the workspace (rare: only if a reference longer than the
// configured maximum is seen) and otherwise is a no-op -- the common path
// never allocates.
func (w *dpWorkspace) ensure(dim int) {
	if dim <= w.dim {
		return
	}
	*w = *newDPWorkspace(dim)
}

func (w *dpWorkspace) idx(i, j, cols int) int { return i*cols + j }

// DPAligner is the affine-gap dynamic-programming back-end: a 3-plane
// table (match, gap-in-read, gap-in-ref) with preallocated, thread-local
// workspaces drawn from a sync.Pool, one per worker goroutine, matching
// the reuse contract in spec §4.2/§9.
type DPAligner struct {
	scores scoring.Affine
	pool   *sync.Pool
}

// NewDPAligner builds a DPAligner whose workspaces are presized to
// (2*maxRefLen)x(2*maxRefLen), per spec §9.
func NewDPAligner(scores scoring.Affine, maxRefLen int) *DPAligner {
	dim := maxRefLen * 2
	if dim < 1 {
		dim = 1
	}
	return &DPAligner{
		scores: scores,
		pool: &sync.Pool{
			New: func() interface{} { return newDPWorkspace(dim) },
		},
	}
}

// Align implements Aligner.
func (a *DPAligner) Align(reference, read fbase.Sequence, mode Mode, bounds *Bounds) (*Result, error) {
	if len(reference) == 0 || len(read) == 0 {
		return degenerateResult(reference, read, "", ""), nil
	}

	refSeq, readSeq := reference, read
	refOffset, readOffset := 0, 0
	if bounds != nil {
		refSeq = reference[bounds.RefStart:bounds.RefEnd]
		readSeq = read[bounds.ReadStart:bounds.ReadEnd]
		refOffset, readOffset = bounds.RefStart, bounds.ReadStart
	}

	w := a.pool.Get().(*dpWorkspace)
	defer a.pool.Put(w)

	n, m := len(refSeq), len(readSeq)
	dim := n
	if m > dim {
		dim = m
	}
	w.ensure(dim)
	cols := w.dim + 1

	neg := math.Inf(-1)
	s := a.scores

	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			idx := w.idx(i, j, cols)
			switch {
			case i == 0 && j == 0:
				w.m[idx] = 0
				w.ix[idx] = neg
				w.iy[idx] = neg
				w.tbM[idx] = tbNone
			case i == 0:
				// Leading gap in the reference: consumes read only (Iy plane).
				mult := 1.0
				if mode == SemiGlobal {
					mult = 0
				} else {
					mult = s.TerminalGapMultiplier
				}
				w.m[idx] = neg
				w.ix[idx] = neg
				w.iy[idx] = (s.GapOpen + float64(j-1)*s.GapExtend) * mult
				w.tbIy[idx] = tbHorizExtend
			case j == 0:
				mult := 1.0
				if mode == SemiGlobal {
					mult = 0
				} else {
					mult = s.TerminalGapMultiplier
				}
				w.m[idx] = neg
				w.iy[idx] = neg
				w.ix[idx] = (s.GapOpen + float64(i-1)*s.GapExtend) * mult
				w.tbIx[idx] = tbVertExtend
			default:
				diagIdx := w.idx(i-1, j-1, cols)
				upIdx := w.idx(i-1, j, cols)
				leftIdx := w.idx(i, j-1, cols)

				// M: best of the three planes one diagonal step back, plus
				// the match/mismatch primitive.
				match := scoring.Primitive(refSeq[i-1], readSeq[j-1], s)
				best, bestTb := w.m[diagIdx], tbDiagFromM
				if w.ix[diagIdx] > best {
					best, bestTb = w.ix[diagIdx], tbDiagFromIx
				}
				if w.iy[diagIdx] > best {
					best, bestTb = w.iy[diagIdx], tbDiagFromIy
				}
				w.m[idx] = best + match
				w.tbM[idx] = bestTb
				if mode == Local && w.m[idx] < 0 {
					w.m[idx] = 0
					w.tbM[idx] = tbNone
				}

				// Ix: gap in read, i.e. consumes a reference base (vertical move).
				openCost, extCost := s.GapOpen, s.GapExtend
				if mode == SemiGlobal && i == n {
					// Trailing gap in read at the last reference row: free.
					openCost, extCost = 0, 0
				}
				open := w.m[upIdx] + openCost
				ext := w.ix[upIdx] + extCost
				if open >= ext {
					w.ix[idx], w.tbIx[idx] = open, tbVertOpen
				} else {
					w.ix[idx], w.tbIx[idx] = ext, tbVertExtend
				}

				// Iy: gap in reference, i.e. consumes a read base (horizontal move).
				openCost, extCost = s.GapOpen, s.GapExtend
				if mode == SemiGlobal && j == m {
					openCost, extCost = 0, 0
				}
				open = w.m[leftIdx] + openCost
				ext = w.iy[leftIdx] + extCost
				if open >= ext {
					w.iy[idx], w.tbIy[idx] = open, tbHorizOpen
				} else {
					w.iy[idx], w.tbIy[idx] = ext, tbHorizExtend
				}
			}
		}
	}

	endI, endJ, plane := n, m, 0 // plane: 0=M,1=Ix,2=Iy
	score := w.m[w.idx(n, m, cols)]
	if v := w.ix[w.idx(n, m, cols)]; v > score {
		score, plane = v, 1
	}
	if v := w.iy[w.idx(n, m, cols)]; v > score {
		score, plane = v, 2
	}

	if mode == Local || mode == SemiGlobal {
		best := neg
		for i := 0; i <= n; i++ {
			for j := 0; j <= m; j++ {
				v := w.m[w.idx(i, j, cols)]
				consider := (mode == Local) || (mode == SemiGlobal && (i == n || j == m))
				if consider && v > best {
					best, endI, endJ, plane = v, i, j, 0
				}
			}
		}
		score = best
	}

	cigar, err := traceback(w, cols, endI, endJ, plane)
	if err != nil {
		return nil, wrapErr(err, "", "")
	}
	cigar = Normalize(cigar)

	alignedRef, alignedRead, err := Replay(cigar, refSeq[:endIRefLen(cigar, refSeq)], readSeq[:endIReadLen(cigar, readSeq)])
	if err != nil {
		return nil, wrapErr(err, "", "")
	}

	return &Result{
		AlignedRef:  alignedRef,
		AlignedRead: alignedRead,
		CIGAR:       cigar,
		Score:       score,
		RefStart:    refOffset,
		ReadStart:   readOffset,
	}, nil
}

// endIRefLen/endIReadLen compute how much of refSeq/readSeq the traceback
// actually consumed, since Local/SemiGlobal tracebacks may stop short of
// the full input.
func endIRefLen(cigar CIGAR, ref fbase.Sequence) int {
	n := 0
	for _, r := range cigar {
		if r.Op == OpMatch || r.Op == OpDelete {
			n += r.N
		}
	}
	if n > len(ref) {
		n = len(ref)
	}
	return n
}

func endIReadLen(cigar CIGAR, read fbase.Sequence) int {
	n := 0
	for _, r := range cigar {
		if r.Op == OpMatch || r.Op == OpInsert {
			n += r.N
		}
	}
	if n > len(read) {
		n = len(read)
	}
	return n
}

func traceback(w *dpWorkspace, cols, i, j, plane int) (CIGAR, error) {
	var ops CIGAR
	for i > 0 || j > 0 {
		idx := w.idx(i, j, cols)
		switch plane {
		case 0:
			switch w.tbM[idx] {
			case tbNone:
				i, j = 0, 0
				continue
			case tbDiagFromM:
				plane = 0
			case tbDiagFromIx:
				plane = 1
			case tbDiagFromIy:
				plane = 2
			}
			ops = append(ops, Run{Op: OpMatch, N: 1})
			i--
			j--
		case 1:
			switch w.tbIx[idx] {
			case tbVertOpen:
				plane = 0
			case tbVertExtend:
				plane = 1
			}
			ops = append(ops, Run{Op: OpDelete, N: 1})
			i--
		case 2:
			switch w.tbIy[idx] {
			case tbHorizOpen:
				plane = 0
			case tbHorizExtend:
				plane = 2
			}
			ops = append(ops, Run{Op: OpInsert, N: 1})
			j--
		}
	}
	// ops were appended end-to-start; reverse.
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}
	return ops, nil
}
