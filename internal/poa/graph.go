package poa

import "math"

// node is one column of the partial-order graph. Rather than committing to
// a single base at creation time (which would force a new node on every
// mismatch, fragmenting the graph), a node accumulates a vote per base
// from every sequence threaded through it; its consensus base is decided
// by majority vote once threading is complete. preds holds every distinct
// predecessor node index observed across all threaded sequences -- a node
// with no real predecessor is a root.
type node struct {
	counts map[byte]int
	preds  []int
}

func newNode(first byte) *node {
	return &node{counts: map[byte]int{first: 1}}
}

func (n *node) vote(b byte) { n.counts[b]++ }

// majority returns the most-voted base at this node, ties broken by the
// smallest byte value for determinism.
func (n *node) majority() byte {
	var best byte
	bestCount := -1
	for b, c := range n.counts {
		if c > bestCount || (c == bestCount && b < best) {
			best, bestCount = b, c
		}
	}
	return best
}

func (n *node) addPred(p int) {
	if p < 0 {
		return
	}
	for _, q := range n.preds {
		if q == p {
			return
		}
	}
	n.preds = append(n.preds, p)
}

// graph is an append-only directed acyclic multiple-sequence-alignment
// graph: nodes are always appended after every predecessor they could
// possibly need, so the node slice's natural order is a valid topological
// order throughout construction.
type graph struct {
	nodes []*node
	// edgeWeight counts how many threaded sequences traversed each
	// (predecessor, successor) edge; used to find the majority
	// consensus path once every sequence has been threaded.
	edgeWeight map[[2]int]int
}

func newGraph() *graph {
	return &graph{edgeWeight: make(map[[2]int]int)}
}

const negInf = math.MinInt32 / 2

// penalties bundles the fixed affine-gap costs AlignAndThread scores with.
type penalties struct {
	match, mismatch       int
	gapOpen, gapExtend    int
}

// addSequence aligns seq against the current graph state and threads it
// in, growing the graph with any nodes the alignment required for
// insertions relative to every existing path.
func (g *graph) addSequence(seq []byte, p penalties) {
	if len(g.nodes) == 0 {
		g.seed(seq)
		return
	}
	ops := g.align(seq, p)
	g.thread(seq, ops)
}

// seed initializes an empty graph with a single linear chain for the
// first sequence threaded in.
func (g *graph) seed(seq []byte) {
	prev := -1
	for _, b := range seq {
		n := newNode(b)
		n.addPred(prev)
		idx := len(g.nodes)
		g.nodes = append(g.nodes, n)
		if prev >= 0 {
			g.edgeWeight[[2]int{prev, idx}]++
		}
		prev = idx
	}
}

// opKind distinguishes the three alignment actions a traceback step can
// take.
type opKind int

const (
	opMatch opKind = iota // consumes one graph node and one sequence byte
	opDelete               // consumes one graph node only
	opInsert                // consumes one sequence byte only, no existing node
)

type op struct {
	kind opKind
	node int // valid for opMatch/opDelete: index into g.nodes
}

// align runs the graph-DP alignment of seq against g, returning the
// traceback as a forward-ordered action list.
func (g *graph) align(seq []byte, p penalties) []op {
	n := len(g.nodes)
	m := len(seq)

	// preds(t) for t in 1..n (1-indexed; 0 is the virtual "before any
	// real node" state) is g.nodes[t-1].preds, remapped to 1-indexed,
	// defaulting to {0} (virtual start) when the node is a root.
	predsOf := func(t int) []int {
		raw := g.nodes[t-1].preds
		if len(raw) == 0 {
			return []int{0}
		}
		out := make([]int, len(raw))
		for i, q := range raw {
			out[i] = q + 1
		}
		return out
	}

	dim := n + 1
	M := make2D(dim, m+1)
	D := make2D(dim, m+1)
	I := make2D(dim, m+1)

	M[0][0], D[0][0], I[0][0] = 0, 0, 0
	for j := 1; j <= m; j++ {
		M[0][j] = negInf
		D[0][j] = negInf
		if j == 1 {
			I[0][j] = p.gapOpen
		} else {
			I[0][j] = I[0][j-1] + p.gapExtend
		}
	}
	for t := 1; t <= n; t++ {
		M[t][0] = negInf
	}

	subScore := func(t, j int) int {
		if seq[j-1] == g.nodes[t-1].majority() {
			return p.match
		}
		return p.mismatch
	}

	for t := 1; t <= n; t++ {
		preds := predsOf(t)
		// D[t][0]: consume node t with zero sequence bytes.
		best := negInf
		for _, pr := range preds {
			best = maxInt(best, M[pr][0]+p.gapOpen, D[pr][0]+p.gapExtend)
		}
		D[t][0] = best

		for j := 1; j <= m; j++ {
			mBest := negInf
			for _, pr := range preds {
				mBest = maxInt(mBest, M[pr][j-1], D[pr][j-1], I[pr][j-1])
			}
			M[t][j] = mBest + subScore(t, j)

			dBest := negInf
			for _, pr := range preds {
				dBest = maxInt(dBest, M[pr][j]+p.gapOpen, D[pr][j]+p.gapExtend)
			}
			D[t][j] = dBest

			I[t][j] = maxInt(M[t][j-1]+p.gapOpen, D[t][j-1]+p.gapOpen, I[t][j-1]+p.gapExtend)
		}
	}

	// Find the best-scoring endpoint across every node at j = m.
	bestT, bestState, bestScore := 0, 0, negInf // bestState: 0=M,1=D,2=I
	for t := 0; t <= n; t++ {
		for state, tbl := range [][]int{M[t], D[t], I[t]} {
			if t == 0 && state != 2 {
				continue // only I is meaningful at the virtual start for j=m>0
			}
			if tbl[m] > bestScore {
				bestScore = tbl[m]
				bestT, bestState = t, state
			}
		}
	}

	return traceback(g, M, D, I, bestT, m, bestState, predsOf, seq, p)
}

func traceback(g *graph, M, D, I [][]int, t, j, state int, predsOf func(int) []int, seq []byte, p penalties) []op {
	var rev []op
	for t > 0 || j > 0 {
		switch state {
		case 0: // M
			rev = append(rev, op{kind: opMatch, node: t})
			found := false
			for _, pr := range predsOf(t) {
				target := M[t][j] - scoreFor(g, t, j, seq, p)
				if M[pr][j-1] == target {
					t, j, state, found = pr, j-1, 0, true
				} else if D[pr][j-1] == target {
					t, j, state, found = pr, j-1, 1, true
				} else if I[pr][j-1] == target {
					t, j, state, found = pr, j-1, 2, true
				}
				if found {
					break
				}
			}
			if !found {
				t, j = 0, j-1
			}
		case 1: // D
			rev = append(rev, op{kind: opDelete, node: t})
			found := false
			for _, pr := range predsOf(t) {
				if M[pr][j]+p.gapOpen == D[t][j] {
					t, state, found = pr, 0, true
				} else if D[pr][j]+p.gapExtend == D[t][j] {
					t, state, found = pr, 1, true
				}
				if found {
					break
				}
			}
			if !found {
				t = 0
			}
		case 2: // I
			rev = append(rev, op{kind: opInsert})
			if j > 0 && M[t][j-1]+p.gapOpen == I[t][j] {
				j, state = j-1, 0
			} else if j > 0 && D[t][j-1]+p.gapOpen == I[t][j] {
				j, state = j-1, 1
			} else {
				j, state = j-1, 2
			}
		}
	}
	// Reverse into forward order.
	out := make([]op, len(rev))
	for i, o := range rev {
		out[len(rev)-1-i] = o
	}
	return out
}

func scoreFor(g *graph, t, j int, seq []byte, p penalties) int {
	if seq[j-1] == g.nodes[t-1].majority() {
		return p.match
	}
	return p.mismatch
}

// thread walks a forward-ordered op list and updates the graph: matches
// vote on their node and connect an edge from the previously threaded
// node; deletes are skipped (the node exists but this sequence bypasses
// it); inserts create a brand-new node.
func (g *graph) thread(seq []byte, ops []op) {
	prev := -1
	seqIdx := 0
	for _, o := range ops {
		switch o.kind {
		case opMatch:
			idx := o.node - 1
			g.nodes[idx].vote(seq[seqIdx])
			g.nodes[idx].addPred(prev)
			if prev >= 0 {
				g.edgeWeight[[2]int{prev, idx}]++
			}
			prev = idx
			seqIdx++
		case opDelete:
			// node consumed by the path but not by this sequence.
		case opInsert:
			n := newNode(seq[seqIdx])
			n.addPred(prev)
			idx := len(g.nodes)
			g.nodes = append(g.nodes, n)
			if prev >= 0 {
				g.edgeWeight[[2]int{prev, idx}]++
			}
			prev = idx
			seqIdx++
		}
	}
}

// consensus walks the heaviest-weighted root-to-sink path through the
// graph and returns the majority base at each visited node.
func (g *graph) consensus() []byte {
	if len(g.nodes) == 0 {
		return nil
	}
	succs := make([][]int, len(g.nodes))
	for edge := range g.edgeWeight {
		succs[edge[0]] = append(succs[edge[0]], edge[1])
	}

	rootWeight := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		if len(n.preds) == 0 {
			for _, s := range succs[i] {
				rootWeight[i] += g.edgeWeight[[2]int{i, s}]
			}
		}
	}
	start := -1
	for i, n := range g.nodes {
		if len(n.preds) == 0 && (start == -1 || rootWeight[i] > rootWeight[start]) {
			start = i
		}
	}
	if start == -1 {
		start = 0
	}

	var out []byte
	cur := start
	visited := make(map[int]bool)
	for {
		if visited[cur] {
			break
		}
		visited[cur] = true
		out = append(out, g.nodes[cur].majority())
		next, bestW := -1, -1
		for _, s := range succs[cur] {
			if w := g.edgeWeight[[2]int{cur, s}]; w > bestW {
				next, bestW = s, w
			}
		}
		if next == -1 {
			break
		}
		cur = next
	}
	return out
}

func make2D(rows, cols int) [][]int {
	out := make([][]int, rows)
	for i := range out {
		out[i] = make([]int, cols)
	}
	return out
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
