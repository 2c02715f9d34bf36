// Package model 构建物品-物品（item-item）协同过滤的相似度模型。
//
// 离线阶段：
//  1. 按物品分组评分，计算物品均值，并把每个评分减去均值得到中心化向量
//  2. 对每一对不同物品，计算中心化向量的余弦相似度（缺失项视为 0）
//  3. 只保留相似度 > 0 的物品对，不保留自身
//
// 产物 SimilarityModel 只能由 Builder 构造，构造完成后不可变，
// 可在任意多个打分请求之间并发共享，无需加锁。
package model
