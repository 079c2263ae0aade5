package main

import (
	"encoding/json"
	"fmt"

	"tern/buffer"
	"tern/common"
	"tern/disk"
)

type demostruct struct {
	Num int
	Val string
}

func main() {
	defer common.Remove("demo.tern")
	pool := buffer.NewBufferPool("demo.tern", 32)

	pageIds := make([]uint64, 0)
	for i := 0; i < 50; i++ {
		p, err := pool.NewPage()
		if err != nil {
			println(err.Error())
			return
		}

		x := demostruct{Num: i, Val: "selam"}
		serialized, _ := json.Marshal(x)
		copy(p.GetData(), serialized)

		pageIds = append(pageIds, p.GetPageId())
		pool.UnpinPage(p.GetPageId(), true)
	}

	if err := pool.FlushAll(); err != nil {
		println(err.Error())
		return
	}

	p, err := pool.FetchPage(pageIds[7])
	if err != nil {
		println(err.Error())
		return
	}

	content := p.GetData()
	for i := 0; i < disk.PageSize; i++ {
		if content[i] == '\000' {
			content = content[:i]
			break
		}
	}
	fmt.Println(string(content))
	pool.UnpinPage(p.GetPageId(), false)
}
