package pipeline

import "testing"

func TestCFGIfElseBothReturn(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"branch.cpp": `int classify(int n) {
    if (n > 0) {
        return 1;
    } else {
        return -1;
    }
}
`,
	})

	// entry, then, else, exit; no join since both arms return.
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks"); n != 4 {
		t.Errorf("cfg_blocks = %d, want 4", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE is_entry_block = 1"); n != 1 {
		t.Errorf("entry blocks = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE is_exit_block = 1"); n != 1 {
		t.Errorf("exit blocks = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'true_branch'"); n != 1 {
		t.Errorf("true_branch edges = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'false_branch'"); n != 1 {
		t.Errorf("false_branch edges = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'return'"); n != 2 {
		t.Errorf("return edges = %d, want 2", n)
	}
	if got := queryString(t, st, "SELECT condition_expression FROM cfg_blocks WHERE terminator_kind = 'if'"); got != "n > 0" {
		t.Errorf("branch condition = %q, want \"n > 0\"", got)
	}
	if got := queryString(t, st, "SELECT condition_text FROM statements WHERE statement_kind = 'if_statement'"); got != "n > 0" {
		t.Errorf("statement condition = %q, want \"n > 0\"", got)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE reachable = 0"); n != 0 {
		t.Errorf("unreachable blocks = %d, want 0", n)
	}

	// Every non-exit block must lead somewhere.
	orphans := countRows(t, st, `
		SELECT COUNT(*) FROM cfg_blocks b
		WHERE b.is_exit_block = 0
		  AND NOT EXISTS (SELECT 1 FROM cfg_edges e WHERE e.source_block_id = b.node_id)`)
	if orphans != 0 {
		t.Errorf("blocks without outgoing edges = %d, want 0", orphans)
	}
}

func TestCFGForLoop(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"loop.cpp": `int sum(int n) {
    int total = 0;
    for (int i = 0; i < n; i++) {
        total += i;
    }
    return total;
}
`,
	})

	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'loop_back'"); n != 1 {
		t.Errorf("loop_back edges = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'loop_exit'"); n != 1 {
		t.Errorf("loop_exit edges = %d, want 1", n)
	}
	if got := queryString(t, st, "SELECT condition_expression FROM cfg_blocks WHERE terminator_kind = 'for'"); got != "i < n" {
		t.Errorf("loop condition = %q, want \"i < n\"", got)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE reachable = 0"); n != 0 {
		t.Errorf("unreachable blocks = %d, want 0", n)
	}
}

func TestCFGSwitchFallthrough(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"grade.cpp": `int grade(int score) {
    int result = 0;
    switch (score) {
    case 10:
        result = 1;
        break;
    case 20:
        result = 2;
    case 30:
        result = 3;
        break;
    default:
        result = -1;
    }
    return result;
}
`,
	})

	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'switch_case'"); n != 4 {
		t.Errorf("switch_case edges = %d, want 4", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'fallthrough'"); n != 1 {
		t.Errorf("fallthrough edges = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'switch_case' AND condition = 'default'"); n != 1 {
		t.Errorf("default case edges = %d, want 1", n)
	}
	// Case labels are recorded as constant contexts.
	if n := countRows(t, st, "SELECT COUNT(*) FROM constant_expressions WHERE evaluation_status = 'constant' AND evaluated_value IN ('10', '20', '30')"); n != 3 {
		t.Errorf("case label constants = %d, want 3", n)
	}
}

func TestCFGWhileWithBreak(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"poll.cpp": `int poll(int limit) {
    int n = 0;
    while (true) {
        n++;
        if (n >= limit) {
            break;
        }
    }
    return n;
}
`,
	})

	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE terminator_kind = 'while'"); n != 1 {
		t.Errorf("while headers = %d, want 1", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'loop_back'"); n != 1 {
		t.Errorf("loop_back edges = %d, want 1", n)
	}
	// One exit from the header test, one from the break.
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'loop_exit'"); n != 2 {
		t.Errorf("loop_exit edges = %d, want 2", n)
	}
}

func TestCFGUnreachableAfterReturn(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"dead.cpp": `int always() {
    return 1;
    int leftover = 2;
}
`,
	})

	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE reachable = 0"); n != 1 {
		t.Errorf("unreachable blocks = %d, want 1", n)
	}
	orphans := countRows(t, st, `
		SELECT COUNT(*) FROM cfg_blocks b
		WHERE b.is_exit_block = 0
		  AND NOT EXISTS (SELECT 1 FROM cfg_edges e WHERE e.source_block_id = b.node_id)`)
	if orphans != 0 {
		t.Errorf("blocks without outgoing edges = %d, want 0", orphans)
	}
}

func TestCFGTryCatch(t *testing.T) {
	st, _ := indexSources(t, map[string]string{
		"risky.cpp": `int risky(int n) {
    try {
        if (n < 0) {
            throw n;
        }
    } catch (int err) {
        return err;
    }
    return 0;
}
`,
	})

	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_edges WHERE edge_type = 'exception'"); n < 2 {
		t.Errorf("exception edges = %d, want at least 2 (throw and catch entry)", n)
	}
	if n := countRows(t, st, "SELECT COUNT(*) FROM cfg_blocks WHERE is_exit_block = 1"); n != 1 {
		t.Errorf("exit blocks = %d, want 1", n)
	}
}
