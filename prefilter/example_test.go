package prefilter_test

import (
	"fmt"

	"github.com/coregx/pcre/prefilter"
	"github.com/coregx/pcre/syntax"
)

// ExampleBuilder_Literal shows the literal prefilter of a plain pattern.
func ExampleBuilder_Literal() {
	p, _ := syntax.Compile("hello", 0, nil)
	pf := prefilter.NewBuilder(p).Literal()

	fmt.Println(pf.Find([]byte("foo hello world"), 0))
	fmt.Println(pf.IsComplete(), pf.LiteralLen())

	// Output:
	// 4
	// true 5
}

// ExampleBuilder_Literal_alternation shows the Aho-Corasick prefilter
// built for an alternation of literals.
func ExampleBuilder_Literal_alternation() {
	p, _ := syntax.Compile("cat|dog|bird", 0, nil)
	pf := prefilter.NewBuilder(p).Literal()

	haystack := []byte("hotdog and catfish")
	for pos := pf.Find(haystack, 0); pos >= 0; pos = pf.Find(haystack, pos+1) {
		fmt.Println(pos)
	}

	// Output:
	// 3
	// 11
}

// ExampleBuilder_Start shows the studied start-byte prefilter.
func ExampleBuilder_Start() {
	p, _ := syntax.Compile("[0-9]+px", 0, nil)
	p.StartBits = syntax.Study(p)
	pf := prefilter.NewBuilder(p).Start()

	fmt.Println(pf.Find([]byte("width: 12px"), 0))

	// Output:
	// 7
}
