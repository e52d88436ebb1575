package pcre_test

import (
	"errors"
	"fmt"

	"github.com/coregx/pcre"
)

func ExampleCompile() {
	re, err := pcre.Compile(`(?<year>\d{4})-(?<month>\d\d)`)
	if err != nil {
		fmt.Println(err)
		return
	}
	m := re.FindStringSubmatch("released 2024-06")
	fmt.Println(m[re.SubexpIndex("year")], m[re.SubexpIndex("month")])
	// Output: 2024 06
}

func ExampleCompile_error() {
	_, err := pcre.Compile(`a(b`)
	fmt.Println(err)
	var ce *pcre.CompileError
	fmt.Println(errors.As(err, &ce))
	// Output:
	// pcre: compiling "a(b": missing ) at offset 3
	// true
}

func ExampleRegexp_FindAllString() {
	re := pcre.MustCompile(`\d+`)
	fmt.Println(re.FindAllString("1 22 333", -1))
	fmt.Println(re.FindAllString("1 22 333", 2))
	// Output:
	// [1 22 333]
	// [1 22]
}

func ExampleRegexp_ReplaceAllString() {
	re := pcre.MustCompile(`(?<key>\w+)=(\w+)`)
	fmt.Println(re.ReplaceAllString("a=1, b=2", "$2:${key}"))
	// Output: 1:a, 2:b
}

func ExampleRegexp_Exec() {
	re := pcre.MustCompile(`(\w+)@(\w+)\.com`)
	subject := []byte("mail bob@example.com")
	ovector := make([]int, 3*(re.NumSubexp()+1))
	rc, err := re.Exec(subject, 0, 0, ovector)
	if err != nil {
		fmt.Println(err)
		return
	}
	for i := 0; i < rc; i++ {
		fmt.Printf("%d: %s\n", i, subject[ovector[2*i]:ovector[2*i+1]])
	}
	// Output:
	// 0: bob@example.com
	// 1: bob
	// 2: example
}

func ExampleRegexp_Exec_noMatch() {
	re := pcre.MustCompile(`z+`)
	_, err := re.Exec([]byte("abc"), 0, 0, make([]int, 3))
	fmt.Println(errors.Is(err, pcre.ErrNoMatch))
	// Output: true
}

func ExampleRegexp_DFAExec() {
	re := pcre.MustCompile(`<.*>`)
	ovector := make([]int, 10)
	rc, _ := re.DFAExec([]byte("<a> <b>"), 0, 0, ovector, nil)
	fmt.Println(rc, ovector[:2*rc])
	// Output: 2 [0 7 0 3]
}

func ExampleRegexp_DFAExec_partial() {
	re := pcre.MustCompile(`abcd`)
	ovector := make([]int, 2)
	workspace := make([]int, 100)

	_, err := re.DFAExec([]byte("xab"), 0, pcre.Partial, ovector, workspace)
	fmt.Println(errors.Is(err, pcre.ErrPartial), ovector)

	rc, _ := re.DFAExec([]byte("cd!"), 0, pcre.Partial|pcre.DFARestart, ovector, workspace)
	fmt.Println(rc, ovector)
	// Output:
	// true [1 3]
	// 1 [0 2]
}

func ExampleRegexp_MarshalBinary() {
	data, _ := pcre.MustCompile(`(?i)go+gle`).MarshalBinary()
	re := pcre.MustLoad(data)
	fmt.Println(re.FindString("I use GOOOGLE"))
	// Output: GOOOGLE
}

func ExampleQuoteMeta() {
	fmt.Println(pcre.QuoteMeta(`1.5+2=3.5?`))
	// Output: 1\.5\+2\=3\.5\?
}
