package dsl

// fields() methods implement the ordered interface for every AST node
// that appears in the parse-tree serialization. Key order here is the
// contract spec'd for parse-tree mode; Parse/round-trip tests depend on
// it, so change it deliberately.

func (rf *RulesFile) fields() []kv {
	return []kv{
		{"assignments", orderedSlice(rf.Assignments)},
		{"guard_rules", orderedSlice(rf.GuardRules)},
		{"parameterized_rules", orderedSlice(rf.ParameterizedRules)},
	}
}

func (a *Assignment) fields() []kv {
	return []kv{
		{"name", a.Name},
		{"value", a.Value},
	}
}

func (r *Rule) fields() []kv {
	return []kv{
		{"rule_name", r.Name},
		{"params", r.Params},
		{"conditions", r.Conditions},
		{"block", r.Body},
	}
}

func (c *ConditionList) fields() []kv {
	return []kv{
		{"conjunctions", orderedSlice(c.Conjunctions)},
	}
}

func (b *Block) fields() []kv {
	return []kv{
		{"assignments", orderedSlice(b.Assignments)},
		{"conjunctions", orderedSlice(b.Conjunctions)},
	}
}

func (c *Conjunction) fields() []kv {
	return []kv{
		{"clauses", orderedSlice(c.Clauses)},
	}
}

func (c *Clause) fields() []kv {
	return []kv{
		{"access_clause", c.Access},
		{"named_rule", c.NamedRule},
		{"block_clause", c.Block},
		{"when_block", c.When},
		{"negation", c.Negation},
	}
}

func (w *WhenBlock) fields() []kv {
	return []kv{
		{"conditions", w.Conditions},
		{"block", w.Body},
	}
}

func (b *BlockClause) fields() []kv {
	return []kv{
		{"query", b.Query},
		{"block", b.Body},
	}
}

func (a *AccessClause) fields() []kv {
	return []kv{
		{"query", a.Query},
		{"comparator", a.Comparator},
		{"rhs", a.Rhs},
		{"message", a.Message},
	}
}

func (g *GuardNamedRuleClause) fields() []kv {
	return []kv{
		{"rule_name", g.RuleName},
		{"args", orderedSlice(g.Args)},
	}
}

func (e *Expression) fields() []kv {
	return []kv{
		{"query", e.Query},
		{"literal", e.Literal},
	}
}

func (c *Comparator) fields() []kv {
	kind, inverted := c.Kind()
	return []kv{
		{"op", kind},
		{"negated", inverted},
	}
}

func (q *Query) fields() []kv {
	return []kv{
		{"match_all", q.MatchAll()},
		{"head", q.Head},
		{"tail", orderedSlice(q.Tail)},
	}
}

func (s *PathStep) fields() []kv {
	return []kv{
		{"key", s.Key},
		{"variable", s.Variable},
		{"all_values", flag(s.AllValues)},
		{"index", s.Index},
		{"all_indices", flag(s.AllIndices)},
		{"filter", s.Filter},
		{"map_key_filter", s.MapKeyFilter},
	}
}

func (l *Literal) fields() []kv {
	return []kv{
		{"null", flag(l.Null)},
		{"bool", l.Bool},
		{"str", l.Str},
		{"regex", l.Regex},
		{"number", l.Number},
		{"list", l.List},
		{"map", l.Map},
	}
}

func (l *ListLiteral) fields() []kv {
	return []kv{
		{"items", orderedSlice(l.Items)},
	}
}

func (m *MapLiteral) fields() []kv {
	return []kv{
		{"entries", orderedSlice(m.Entries)},
	}
}

func (e *MapEntry) fields() []kv {
	return []kv{
		{"key", e.Key},
		{"value", e.Value},
	}
}
