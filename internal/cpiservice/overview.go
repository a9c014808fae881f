package cpiservice

// Overview is the dashboard's introduction and usage guide, served by the
// API and as an MCP resource.
const Overview = `# 消費者物価指数（2020年基準）

e-Stat 公開データ（6月・12月の半年ごとのデータ）

## アプリ概要

本アプリは、政府統計ポータルサイト e-Stat が公開している
**消費者物価指数（CPI：2020年基準）** を用いて、
地域別・品目別の物価動向を可視化するものです。

データは **6月・12月の半年ごとの観測値**であるため、
単年比較と時系列分析で入力項目を切り替える設計としています。

### 消費者物価指数（CPI）とは

消費者物価指数（CPI）は、一定の財・サービスの価格変化を基に算出される指標で、
基準年（本データでは2020年）を100として物価水準の変化を表します。

## 使い方

**① 指数・前年同月比（point query）**
品目・地域・対象年・対象期（6月(上期) = H1／12月(下期) = H2）を指定すると、
その時点の指数と前年同月比【%】を返します。

**② 時間推移（range query）**
品目・地域（複数可）・対象期間（年、両端を含む）を指定すると、
半年ごとの指数の推移を時系列で返します。

- 品目・地域は完全一致で照合します（表記ゆれは補正しません）。
- 数値が公開されていない時点は null として返します（0 ではありません）。
- 該当データがない場合はエラーではなく、空の結果とメッセージを返します。

## グラフの見方

- **指数**は、2020年を100としたときの物価水準を表します。
  100を上回るほど、基準年より物価が上昇していることを示します。
- **前年同月比**は、前年同月と比較した物価の変化率を示します。
  正の値は上昇、負の値は下落を意味します。
- 時間推移のグラフでは、縦軸が消費者物価指数（2020年＝100）、
  横軸が観測時点（年・月）です。折れ線の傾きが大きいほど、
  短期間で物価が変化していることを示します。
`
