// Package critic scores generated plans and proposes replacements. The
// critique itself is model-driven; every boundary of the package is
// deterministic: a critique that cannot be produced or parsed degrades to a
// neutral fallback instead of failing the request.
package critic
